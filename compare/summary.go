package compare

import (
	"sort"

	"github.com/ortelius/sbom-finder-dashboard/model"
	"github.com/ortelius/sbom-finder-dashboard/util"
)

// VersionChange is a package present on both devices with different versions
type VersionChange struct {
	PURL     string `json:"purl"`
	Name     string `json:"name"`
	Version1 string `json:"version1"`
	Version2 string `json:"version2"`
}

// Summary is the package delta between device 1 and device 2
type Summary struct {
	Added   []model.PURL    `json:"added"`
	Removed []model.PURL    `json:"removed"`
	Changed []VersionChange `json:"changed"`
}

// Empty reports whether both package lists are identical by identity and version
func (s Summary) Empty() bool {
	return len(s.Added) == 0 && len(s.Removed) == 0 && len(s.Changed) == 0
}

// Summarize compares the packages row of a comparison. Packages are matched by
// their package URL without version; Added holds packages only device 2 has and
// Removed packages only device 1 has.
func Summarize(rows []Row) Summary {
	var left, right []model.SoftwarePackage
	for _, r := range rows {
		if r.Field == FieldPackages {
			left, right = r.Device1.Packages, r.Device2.Packages
		}
	}

	type entry struct {
		name string
		purl model.PURL
	}
	index := func(pkgs []model.SoftwarePackage) map[string]entry {
		m := make(map[string]entry, len(pkgs))
		for _, p := range pkgs {
			id := util.PackagePURL(p.Name, p.Version)
			if _, dup := m[id.Base]; !dup {
				m[id.Base] = entry{name: p.Name, purl: id}
			}
		}
		return m
	}
	l, r := index(left), index(right)

	s := Summary{Added: []model.PURL{}, Removed: []model.PURL{}, Changed: []VersionChange{}}
	for base, le := range l {
		re, ok := r[base]
		switch {
		case !ok:
			s.Removed = append(s.Removed, le.purl)
		case le.purl.Version != re.purl.Version:
			s.Changed = append(s.Changed, VersionChange{
				PURL:     base,
				Name:     le.name,
				Version1: le.purl.Version,
				Version2: re.purl.Version,
			})
		}
	}
	for base, re := range r {
		if _, ok := l[base]; !ok {
			s.Added = append(s.Added, re.purl)
		}
	}

	sort.Slice(s.Added, func(i, j int) bool { return s.Added[i].Base < s.Added[j].Base })
	sort.Slice(s.Removed, func(i, j int) bool { return s.Removed[i].Base < s.Removed[j].Base })
	sort.Slice(s.Changed, func(i, j int) bool { return s.Changed[i].PURL < s.Changed[j].PURL })
	return s
}
