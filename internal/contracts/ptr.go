package contracts

// Pointer helpers for building SourceRecord literals.

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v.
func Int(v int) *int { return &v }

// Int64 returns a pointer to v.
func Int64(v int64) *int64 { return &v }

// Str returns a pointer to v.
func Str(v string) *string { return &v }
