package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"harmonia/internal/logging"
)

// Hub accumulates telemetry in memory and hands copies to the analyzers.
// All methods are safe for concurrent use.
type Hub struct {
	mu            sync.RWMutex
	activities    []Activity
	wellbeing     []WellbeingIndicator
	contributions []Contribution
	roster        map[string]*TeamMember
	rosterOrder   []string
	codebase      CodebaseMetrics
	trends        []TrendAnalysis
	phase         ProjectPhase
}

// NewHub creates an empty telemetry hub.
func NewHub() *Hub {
	return &Hub{
		roster: make(map[string]*TeamMember),
		phase:  PhaseDevelopment,
	}
}

// RecordActivity appends a team activity.
func (h *Hub) RecordActivity(a Activity) {
	if a.Timestamp.IsZero() {
		a.Timestamp = time.Now()
	}
	h.mu.Lock()
	h.activities = append(h.activities, a)
	h.mu.Unlock()
	logging.TelemetryDebug("activity recorded: %s by %s", a.Kind, a.Actor)
}

// RecordWellbeing appends a wellbeing sample.
func (h *Hub) RecordWellbeing(w WellbeingIndicator) {
	if w.Timestamp.IsZero() {
		w.Timestamp = time.Now()
	}
	h.mu.Lock()
	h.wellbeing = append(h.wellbeing, w)
	h.mu.Unlock()
	logging.TelemetryDebug("wellbeing recorded for %s", w.Actor)
}

// RecordContribution appends a reciprocity contribution.
func (h *Hub) RecordContribution(c Contribution) {
	if c.Timestamp.IsZero() {
		c.Timestamp = time.Now()
	}
	h.mu.Lock()
	h.contributions = append(h.contributions, c)
	h.mu.Unlock()
	logging.TelemetryDebug("contribution recorded: %s %s -> %s", c.Kind, c.Giver, c.Receiver)
}

// UpsertMember adds or replaces a roster entry.
func (h *Hub) UpsertMember(m TeamMember) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, exists := h.roster[m.ID]; !exists {
		h.rosterOrder = append(h.rosterOrder, m.ID)
	}
	copied := m
	h.roster[m.ID] = &copied
}

// Member returns a pointer to the live roster entry, or nil.
// The mission assigner uses this to mutate workload and reciprocity in place.
func (h *Hub) Member(id string) *TeamMember {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.roster[id]
}

// Roster returns the live roster entries in insertion order.
func (h *Hub) Roster() []*TeamMember {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*TeamMember, 0, len(h.rosterOrder))
	for _, id := range h.rosterOrder {
		out = append(out, h.roster[id])
	}
	return out
}

// Activities returns a copy of all recorded activities.
func (h *Hub) Activities() []Activity {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]Activity, len(h.activities))
	copy(out, h.activities)
	return out
}

// Wellbeing returns a copy of all recorded wellbeing samples.
func (h *Hub) Wellbeing() []WellbeingIndicator {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]WellbeingIndicator, len(h.wellbeing))
	copy(out, h.wellbeing)
	return out
}

// Contributions returns a copy of all recorded contributions.
func (h *Hub) Contributions() []Contribution {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]Contribution, len(h.contributions))
	copy(out, h.contributions)
	return out
}

// SetCodebaseMetrics replaces the codebase snapshot.
func (h *Hub) SetCodebaseMetrics(m CodebaseMetrics) {
	h.mu.Lock()
	h.codebase = m
	h.mu.Unlock()
}

// CodebaseMetrics returns the current codebase snapshot.
func (h *Hub) CodebaseMetrics() CodebaseMetrics {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.codebase
}

// SetTrends replaces the trend records.
func (h *Hub) SetTrends(trends []TrendAnalysis) {
	h.mu.Lock()
	h.trends = append([]TrendAnalysis(nil), trends...)
	h.mu.Unlock()
}

// Trends returns a copy of the trend records.
func (h *Hub) Trends() []TrendAnalysis {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]TrendAnalysis, len(h.trends))
	copy(out, h.trends)
	return out
}

// SetPhase sets the project phase.
func (h *Hub) SetPhase(p ProjectPhase) {
	h.mu.Lock()
	h.phase = p
	h.mu.Unlock()
}

// Phase returns the project phase.
func (h *Hub) Phase() ProjectPhase {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.phase
}

// =============================================================================
// BUNDLE IMPORT - JSON drops and YAML seed files
// =============================================================================

// Bundle is the JSON envelope accepted by the inbox watcher and ImportBundle.
// Any section may be omitted.
type Bundle struct {
	Activities    []Activity           `json:"activities,omitempty"`
	Wellbeing     []WellbeingIndicator `json:"wellbeing,omitempty"`
	Contributions []Contribution       `json:"contributions,omitempty"`
	Members       []TeamMember         `json:"members,omitempty"`
	Codebase      *CodebaseMetrics     `json:"codebase,omitempty"`
	Trends        []TrendAnalysis      `json:"trends,omitempty"`
	Phase         ProjectPhase         `json:"phase,omitempty"`
}

// ImportBundle merges a decoded bundle into the hub.
func (h *Hub) ImportBundle(b *Bundle) {
	for _, a := range b.Activities {
		h.RecordActivity(a)
	}
	for _, w := range b.Wellbeing {
		h.RecordWellbeing(w)
	}
	for _, c := range b.Contributions {
		h.RecordContribution(c)
	}
	for _, m := range b.Members {
		h.UpsertMember(m)
	}
	if b.Codebase != nil {
		h.SetCodebaseMetrics(*b.Codebase)
	}
	if len(b.Trends) > 0 {
		h.SetTrends(b.Trends)
	}
	if b.Phase != "" {
		h.SetPhase(b.Phase)
	}
}

// ImportJSON decodes a JSON bundle and merges it into the hub.
func (h *Hub) ImportJSON(data []byte) error {
	var b Bundle
	if err := json.Unmarshal(data, &b); err != nil {
		return fmt.Errorf("failed to parse telemetry bundle: %w", err)
	}
	h.ImportBundle(&b)
	logging.Telemetry("bundle imported: %d activities, %d wellbeing, %d contributions, %d members",
		len(b.Activities), len(b.Wellbeing), len(b.Contributions), len(b.Members))
	return nil
}

// rosterFile is the YAML shape of a team roster seed file.
type rosterFile struct {
	Members []TeamMember `yaml:"members"`
}

// LoadRoster reads a YAML roster seed file into the hub.
func (h *Hub) LoadRoster(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read roster: %w", err)
	}

	var rf rosterFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return fmt.Errorf("failed to parse roster: %w", err)
	}

	for _, m := range rf.Members {
		h.UpsertMember(m)
	}
	logging.Telemetry("roster loaded: %d members from %s", len(rf.Members), path)
	return nil
}
