package stringsx

// OneOf reports whether s equals one of ss.
func OneOf(s string, ss ...string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
