package configfat

// MaxEntries is the fixed capacity of the entry registry.
const MaxEntries = 8

// MaxNameLength and MaxCommentLength bound registration inputs, matching
// the original firmware's MAX_ENTRY_LABEL_LENGTH/MAX_ENTRY_COMMENT_LENGTH.
const (
	MaxNameLength    = 63
	MaxCommentLength = 63
)

// Validator reports whether value is an acceptable setting for an entry.
// A nil Validator accepts every value.
type Validator func(value []byte) bool

// Updater applies value to live device state. Called after a successful
// validation, or with the entry's default value when the submission has
// no line for the entry and when Init synthesizes a fresh volume. It is
// not called when a submitted value fails validation.
type Updater func(value []byte)

// Printer renders the entry's current "name=value" text (without the
// trailing comment) into out, returning the number of bytes written. A
// nil Printer falls back to "name=default_value".
type Printer func(out []byte) int

// Entry describes one configuration item: a name, a pre-formatted
// comment, a borrowed default value, and the validate/update/print
// capability triad.
type Entry struct {
	Name         string
	DefaultValue string
	comment      string // "\t" + caller text + "\r\n"
	Validate     Validator
	Update       Updater
	Print        Printer
}

// Comment returns the entry's comment exactly as it will be appended to
// its rendered line: a leading tab and a trailing CRLF around the
// caller-supplied text.
func (e *Entry) Comment() string { return e.comment }

// Registry is the fixed-capacity table of configuration entries. Slots
// are filled in registration order and are never reused, matching the
// firmware's entry_usage_mask behavior.
type Registry struct {
	entries [MaxEntries]Entry
	used    uint8 // bitmask of occupied slots
	count   int
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a new entry to the next free slot. It reports false
// without modifying the registry once all MaxEntries slots are occupied.
//
// Registration must happen before Init; calling Register afterward is
// accepted (returns true if a slot was free) but has no effect on the
// live image until the next Init, since the image was already rendered
// from the registry as it existed at that time.
func (r *Registry) Register(name, defaultValue, comment string, validate Validator, update Updater, print Printer) bool {
	if r.count >= MaxEntries {
		return false
	}

	if len(name) > MaxNameLength {
		name = name[:MaxNameLength]
	}
	if len(comment) > MaxCommentLength {
		comment = comment[:MaxCommentLength]
	}

	idx := r.count
	r.entries[idx] = Entry{
		Name:         name,
		DefaultValue: defaultValue,
		comment:      "\t" + comment + "\r\n",
		Validate:     validate,
		Update:       update,
		Print:        print,
	}
	r.used |= 1 << uint(idx)
	r.count++
	return true
}

// Len returns the number of occupied slots.
func (r *Registry) Len() int { return r.count }

// At returns a pointer to the entry at registration-order index i, or
// nil if i is out of range or the slot is unoccupied.
func (r *Registry) At(i int) *Entry {
	if i < 0 || i >= r.count {
		return nil
	}
	return &r.entries[i]
}

// Find returns the entry whose Name matches name exactly, and its index,
// or (nil, -1) if no registered entry has that name.
func (r *Registry) Find(name string) (*Entry, int) {
	for i := 0; i < r.count; i++ {
		if r.entries[i].Name == name {
			return &r.entries[i], i
		}
	}
	return nil, -1
}
