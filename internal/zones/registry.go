package zones

// Metadata is what the registry remembers about a discovered zone.
type Metadata struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Registry holds every zone index ever accepted, keyed by panel. Insertion
// is monotonic: an index is never removed once accepted, even if later
// scans fail to observe it. Single-writer; polls are serialized by the
// orchestrator so no locking is needed.
type Registry struct {
	panels map[string]map[int]Metadata
}

func NewRegistry() *Registry {
	return &Registry{panels: make(map[string]map[int]Metadata)}
}

// Accept inserts a zone index for a panel and reports whether it was newly
// inserted. For an index already present, blank metadata fields are
// backfilled; a non-blank name is stable and never overwritten.
func (r *Registry) Accept(panelID string, index int, meta Metadata) bool {
	panel, ok := r.panels[panelID]
	if !ok {
		panel = make(map[int]Metadata)
		r.panels[panelID] = panel
	}

	existing, present := panel[index]
	if !present {
		panel[index] = meta
		return true
	}

	if existing.Name == "" && meta.Name != "" {
		existing.Name = meta.Name
	}
	if existing.Type == "" && meta.Type != "" {
		existing.Type = meta.Type
	}
	panel[index] = existing
	return false
}

// View returns a copy of the panel's registry entries, safe to read while
// discovery continues to mutate the registry.
func (r *Registry) View(panelID string) map[int]Metadata {
	view := make(map[int]Metadata, len(r.panels[panelID]))
	for index, meta := range r.panels[panelID] {
		view[index] = meta
	}
	return view
}

// Contains reports whether the index has been accepted for the panel.
func (r *Registry) Contains(panelID string, index int) bool {
	_, ok := r.panels[panelID][index]
	return ok
}

// Len returns the number of accepted indices for a panel.
func (r *Registry) Len(panelID string) int {
	return len(r.panels[panelID])
}

// Export returns the full registry contents for persistence.
func (r *Registry) Export() map[string]map[int]Metadata {
	out := make(map[string]map[int]Metadata, len(r.panels))
	for panelID := range r.panels {
		out[panelID] = r.View(panelID)
	}
	return out
}

// Import seeds the registry from persisted contents via Accept, so the
// monotonic-insert path is the only way entries ever appear.
func (r *Registry) Import(data map[string]map[int]Metadata) {
	for panelID, panel := range data {
		for index, meta := range panel {
			r.Accept(panelID, index, meta)
		}
	}
}
