package refdata

import (
	"sort"
	"strings"
)

var defaultNationalities = []string{
	"Albanija", "Austrija", "Bosna i Hercegovina", "Bugarska", "Crna Gora", "Egipat",
	"Francuska", "Grčka", "Hrvatska", "Italija", "Kipar", "Mađarska", "Nemačka",
	"Rumunija", "Rusija", "Severna Makedonija", "Slovenija", "Španija", "Srbija",
	"Švajcarska", "Turska", "Ujedinjeno Kraljevstvo", "Ukrajina", "SAD",
}

type Nationalities struct {
	names []string
}

func NewNationalities(names []string) Nationalities {
	if len(names) == 0 {
		names = defaultNationalities
	}
	sorted := make([]string, len(names))
	copy(sorted, names)
	sort.Strings(sorted)
	return Nationalities{names: sorted}
}

func (n Nationalities) List() []string {
	out := make([]string, len(n.names))
	copy(out, n.names)
	return out
}

// Contains reports whether name is a known nationality, ignoring case and padding.
func (n Nationalities) Contains(name string) bool {
	name = strings.TrimSpace(name)
	for _, v := range n.names {
		if strings.EqualFold(v, name) {
			return true
		}
	}
	return false
}
