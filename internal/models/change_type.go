package models

// ChangeType is the conventional-commit tag derived from a commit title.
type ChangeType string

const (
	Feature      ChangeType = "feat"
	Change       ChangeType = "chg"
	Fix          ChangeType = "fix"
	Chore        ChangeType = "chore"
	Test         ChangeType = "test"
	Vendor       ChangeType = "vendor"
	Unclassified ChangeType = ""
)

// BumpClass is the version component a change type bumps.
type BumpClass int

const (
	PatchBump BumpClass = iota
	MinorBump
)

type changeTypeInfo struct {
	title string
	bump  BumpClass
}

var changeTypes = map[ChangeType]changeTypeInfo{
	Feature:      {title: "Added", bump: MinorBump},
	Change:       {title: "Changes", bump: MinorBump},
	Fix:          {title: "Fixed", bump: PatchBump},
	Chore:        {title: "Additions", bump: PatchBump},
	Test:         {title: "Tests", bump: PatchBump},
	Vendor:       {title: "Vendor Updates", bump: MinorBump},
	Unclassified: {title: "Others", bump: PatchBump},
}

// ParseChangeType maps a raw type string to a known ChangeType. Anything
// else is Unclassified.
func ParseChangeType(s string) (ChangeType, bool) {
	ct := ChangeType(s)
	if ct == Unclassified {
		return Unclassified, false
	}
	if _, ok := changeTypes[ct]; ok {
		return ct, true
	}
	return Unclassified, false
}

// Title is the section heading rendered for the type.
func (t ChangeType) Title() string {
	if info, ok := changeTypes[t]; ok {
		return info.title
	}
	return changeTypes[Unclassified].title
}

// Bump is the version component bumped when a commit of this type is released.
func (t ChangeType) Bump() BumpClass {
	if info, ok := changeTypes[t]; ok {
		return info.bump
	}
	return PatchBump
}

// DisplayOrder returns the section order; vendor updates only appear when
// the generator variant renders them.
func DisplayOrder(includeVendor bool) []ChangeType {
	if includeVendor {
		return []ChangeType{Feature, Change, Fix, Chore, Test, Vendor, Unclassified}
	}
	return []ChangeType{Feature, Change, Fix, Chore, Test, Unclassified}
}
