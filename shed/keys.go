package shed

// Storage keys, one set per lorebook entry.
func ConfigKey(entryID string) string  { return "shed-config-" + entryID }
func SloughKey(entryID string) string  { return "shed-slough-" + entryID }
func SkinKey(entryID string) string    { return "shed-skin-" + entryID }
func EnabledKey(entryID string) string { return "shed-enabled-" + entryID }
func PatternKey(entryID string) string { return "shed-pattern-" + entryID }
