package model

// State is an event lifecycle state. ComputedState values are derived from
// the clock on every read; the remaining values only appear in the manually
// curated EventRecord.State field.
type State string

const (
	StateUpcoming State = "upcoming"
	StateOngoing  State = "ongoing"
	StatePast     State = "past"

	StateHeld      State = "held"
	StateCanceled  State = "canceled"
	StatePostponed State = "postponed"
)

type Format string

const (
	FormatInPerson Format = "in_person"
	FormatOnline   Format = "online"
	FormatHybrid   Format = "hybrid"
)

type Precision string

const (
	PrecisionExact   Precision = "Exact"
	PrecisionApprox  Precision = "Approx"
	PrecisionUnknown Precision = "Unknown"
)

type VerificationStatus string

const (
	StatusDraft       VerificationStatus = "draft"
	StatusNotVerified VerificationStatus = "not_verified"
	StatusVerified    VerificationStatus = "verified"
)

// DateInfo is the loosely typed date block of an event record.
//
// Start and End are "YYYY/MM/DD"; StartTime and EndTime are "HH:mm" or empty.
// The numbers are wall-clock UTC by convention of the data producer.
type DateInfo struct {
	Start     string    `yaml:"start" json:"start"`
	StartTime string    `yaml:"start_time,omitempty" json:"start_time,omitempty"`
	End       string    `yaml:"end,omitempty" json:"end,omitempty"`
	EndTime   string    `yaml:"end_time,omitempty" json:"end_time,omitempty"`
	Precision Precision `yaml:"precision" json:"precision"`
}

// HasEnd reports whether an explicit end date is set.
func (d DateInfo) HasEnd() bool {
	return d.End != ""
}

type Location struct {
	Country string   `yaml:"country" json:"country"`
	City    string   `yaml:"city,omitempty" json:"city,omitempty"`
	Address string   `yaml:"address,omitempty" json:"address,omitempty"`
	Lat     *float64 `yaml:"lat,omitempty" json:"lat,omitempty"`
	Lng     *float64 `yaml:"lng,omitempty" json:"lng,omitempty"`
}

type Online struct {
	Platform          string `yaml:"platform,omitempty" json:"platform,omitempty"`
	JoinURL           string `yaml:"join_url,omitempty" json:"join_url,omitempty"`
	BackupURL         string `yaml:"backup_url,omitempty" json:"backup_url,omitempty"`
	Access            string `yaml:"access,omitempty" json:"access,omitempty"`
	RegistrationURL   string `yaml:"registration_url,omitempty" json:"registration_url,omitempty"`
	RecordingExpected bool   `yaml:"recording_expected,omitempty" json:"recording_expected,omitempty"`
	RecordingURL      string `yaml:"recording_url,omitempty" json:"recording_url,omitempty"`
}

type Socials struct {
	X         string   `yaml:"x,omitempty" json:"x,omitempty"`
	Instagram string   `yaml:"instagram,omitempty" json:"instagram,omitempty"`
	Telegram  string   `yaml:"telegram,omitempty" json:"telegram,omitempty"`
	Other     []string `yaml:"other,omitempty" json:"other,omitempty"`
}

type Organizer struct {
	Name         string   `yaml:"name" json:"name"`
	Website      string   `yaml:"website,omitempty" json:"website,omitempty"`
	ContactEmail string   `yaml:"contact_email,omitempty" json:"contact_email,omitempty"`
	Socials      *Socials `yaml:"socials,omitempty" json:"socials,omitempty"`
}

type Speaker struct {
	Name  string   `yaml:"name" json:"name"`
	Title string   `yaml:"title,omitempty" json:"title,omitempty"`
	Bio   string   `yaml:"bio,omitempty" json:"bio,omitempty"`
	Links []string `yaml:"links,omitempty" json:"links,omitempty"`
}

type Source struct {
	Title string `yaml:"title" json:"title"`
	URL   string `yaml:"url" json:"url"`
}

// EventRecord is one curated event as stored on disk. ID is derived from the
// storage key (file name) and is never read from the YAML body.
type EventRecord struct {
	ID string `yaml:"-" json:"id"`

	Title       string   `yaml:"title" json:"title"`
	Summary     string   `yaml:"summary" json:"summary"`
	Description string   `yaml:"description,omitempty" json:"description,omitempty"`
	State       State    `yaml:"state,omitempty" json:"state,omitempty"`
	Format      Format   `yaml:"format" json:"format"`
	Type        string   `yaml:"type" json:"type"`
	Tags        []string `yaml:"tags,omitempty" json:"tags,omitempty"`

	Date DateInfo `yaml:"date" json:"date"`

	Location  *Location `yaml:"location,omitempty" json:"location,omitempty"`
	Online    *Online   `yaml:"online,omitempty" json:"online,omitempty"`
	Organizer Organizer `yaml:"organizer" json:"organizer"`
	Speakers  []Speaker `yaml:"speakers,omitempty" json:"speakers,omitempty"`

	Status  VerificationStatus `yaml:"status" json:"status"`
	Sources []Source           `yaml:"sources,omitempty" json:"sources,omitempty"`

	Featured bool `yaml:"featured,omitempty" json:"featured"`
}

// ClassifiedEvent is an EventRecord plus the lifecycle state computed for
// one read. It is never persisted.
type ClassifiedEvent struct {
	EventRecord
	ComputedState State `json:"computed_state"`
}
