// Package vocab loads per-domain field vocabularies: the spreadsheet column
// layout and the priority/status label encodings for each task domain.
// Vocabularies are versioned configuration data, not code, so a new domain is
// a config edit rather than a release.
package vocab

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/d-royes/tasksync/internal/models"
)

// CurrentVersion is the vocabulary file format version this build reads.
const CurrentVersion = 1

// Provider resolves the vocabulary for a domain.
type Provider interface {
	ForDomain(d models.Domain) (*Vocabulary, error)
}

// Columns maps canonical field names to spreadsheet header names.
type Columns struct {
	Title     string `yaml:"title"`
	Priority  string `yaml:"priority"`
	Status    string `yaml:"status"`
	Planned   string `yaml:"planned"`
	Target    string `yaml:"target"`
	Deadline  string `yaml:"deadline"`
	Done      string `yaml:"done"`
	Completed string `yaml:"completed"`
	Link      string `yaml:"link"`
	// Modified is the engine-maintained last-modified timestamp column.
	// Optional; without it remote edits lose to canonical edits on conflict.
	Modified string `yaml:"modified"`
}

// domainSpec is the on-disk shape of one domain's vocabulary.
type domainSpec struct {
	Columns    Columns           `yaml:"columns"`
	Priorities map[string]string `yaml:"priorities"` // canonical -> remote label
	Statuses   map[string]string `yaml:"statuses"`   // canonical -> remote label
}

// file is the on-disk shape of a vocabulary file.
type file struct {
	Version int                   `yaml:"version"`
	Domains map[string]domainSpec `yaml:"domains"`
}

// Vocabulary is one domain's resolved, validated vocabulary with bidirectional
// label maps. The maps are bijective by construction, which is what makes the
// translator's round-trip law hold.
type Vocabulary struct {
	Domain  models.Domain
	Columns Columns

	priorityToRemote map[models.Priority]string
	remoteToPriority map[string]models.Priority
	statusToRemote   map[models.Status]string
	remoteToStatus   map[string]models.Status
}

// Set holds the vocabularies for all configured domains.
type Set struct {
	Version      int
	vocabularies map[models.Domain]*Vocabulary
}

// Load reads and validates a vocabulary file.
func Load(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read vocabulary file: %w", err)
	}
	return Parse(data)
}

// Parse validates vocabulary YAML. Every domain must map every canonical
// priority and status exactly once in each direction.
func Parse(data []byte) (*Set, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse vocabulary yaml: %w", err)
	}
	if f.Version != CurrentVersion {
		return nil, fmt.Errorf("unsupported vocabulary version %d (want %d)", f.Version, CurrentVersion)
	}
	if len(f.Domains) == 0 {
		return nil, fmt.Errorf("vocabulary defines no domains")
	}

	set := &Set{Version: f.Version, vocabularies: make(map[models.Domain]*Vocabulary)}
	for name, spec := range f.Domains {
		d := models.Domain(name)
		if !models.IsValidDomain(d) {
			return nil, fmt.Errorf("unknown domain %q in vocabulary", name)
		}
		v, err := buildVocabulary(d, spec)
		if err != nil {
			return nil, fmt.Errorf("domain %s: %w", name, err)
		}
		set.vocabularies[d] = v
	}
	return set, nil
}

func buildVocabulary(d models.Domain, spec domainSpec) (*Vocabulary, error) {
	if err := checkColumns(spec.Columns); err != nil {
		return nil, err
	}

	v := &Vocabulary{
		Domain:           d,
		Columns:          spec.Columns,
		priorityToRemote: make(map[models.Priority]string),
		remoteToPriority: make(map[string]models.Priority),
		statusToRemote:   make(map[models.Status]string),
		remoteToStatus:   make(map[string]models.Status),
	}

	for canonical, remote := range spec.Priorities {
		p := models.Priority(canonical)
		if !models.IsValidPriority(p) {
			return nil, fmt.Errorf("unknown canonical priority %q", canonical)
		}
		remote = strings.TrimSpace(remote)
		if remote == "" {
			return nil, fmt.Errorf("priority %q has empty remote label", canonical)
		}
		if prev, dup := v.remoteToPriority[normalizeLabel(remote)]; dup {
			return nil, fmt.Errorf("remote priority label %q maps to both %q and %q", remote, prev, canonical)
		}
		v.priorityToRemote[p] = remote
		v.remoteToPriority[normalizeLabel(remote)] = p
	}
	for _, p := range []models.Priority{models.PriorityUrgent, models.PriorityHigh, models.PriorityMedium, models.PriorityLow, models.PriorityNone} {
		if _, ok := v.priorityToRemote[p]; !ok {
			return nil, fmt.Errorf("priority %q has no remote label", p)
		}
	}

	for canonical, remote := range spec.Statuses {
		s := models.Status(canonical)
		if !models.IsValidStatus(s) {
			return nil, fmt.Errorf("unknown canonical status %q", canonical)
		}
		remote = strings.TrimSpace(remote)
		if remote == "" {
			return nil, fmt.Errorf("status %q has empty remote label", canonical)
		}
		if prev, dup := v.remoteToStatus[normalizeLabel(remote)]; dup {
			return nil, fmt.Errorf("remote status label %q maps to both %q and %q", remote, prev, canonical)
		}
		v.statusToRemote[s] = remote
		v.remoteToStatus[normalizeLabel(remote)] = s
	}
	for _, s := range []models.Status{models.StatusNotStarted, models.StatusInProgress, models.StatusWaiting, models.StatusDone} {
		if _, ok := v.statusToRemote[s]; !ok {
			return nil, fmt.Errorf("status %q has no remote label", s)
		}
	}

	return v, nil
}

func checkColumns(c Columns) error {
	required := map[string]string{
		"title":    c.Title,
		"priority": c.Priority,
		"status":   c.Status,
		"planned":  c.Planned,
		"done":     c.Done,
		"link":     c.Link,
	}
	for name, header := range required {
		if strings.TrimSpace(header) == "" {
			return fmt.Errorf("column mapping %q is empty", name)
		}
	}
	return nil
}

// normalizeLabel makes remote label lookup case- and whitespace-insensitive.
// The original label casing is preserved on the way back out.
func normalizeLabel(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}

// ForDomain returns the vocabulary for a domain.
func (s *Set) ForDomain(d models.Domain) (*Vocabulary, error) {
	v, ok := s.vocabularies[d]
	if !ok {
		return nil, fmt.Errorf("no vocabulary configured for domain %q", d)
	}
	return v, nil
}

// Domains lists the domains this set covers.
func (s *Set) Domains() []models.Domain {
	out := make([]models.Domain, 0, len(s.vocabularies))
	for d := range s.vocabularies {
		out = append(out, d)
	}
	return out
}

// PriorityFromRemote resolves a spreadsheet priority label.
func (v *Vocabulary) PriorityFromRemote(label string) (models.Priority, bool) {
	p, ok := v.remoteToPriority[normalizeLabel(label)]
	return p, ok
}

// PriorityToRemote returns the spreadsheet label for a canonical priority.
func (v *Vocabulary) PriorityToRemote(p models.Priority) (string, bool) {
	label, ok := v.priorityToRemote[p]
	return label, ok
}

// StatusFromRemote resolves a spreadsheet status label.
func (v *Vocabulary) StatusFromRemote(label string) (models.Status, bool) {
	s, ok := v.remoteToStatus[normalizeLabel(label)]
	return s, ok
}

// StatusToRemote returns the spreadsheet label for a canonical status.
func (v *Vocabulary) StatusToRemote(s models.Status) (string, bool) {
	label, ok := v.statusToRemote[s]
	return label, ok
}

// RemotePriorityLabels returns all remote priority labels (for diagnostics).
func (v *Vocabulary) RemotePriorityLabels() []string {
	out := make([]string, 0, len(v.priorityToRemote))
	for _, label := range v.priorityToRemote {
		out = append(out, label)
	}
	return out
}
