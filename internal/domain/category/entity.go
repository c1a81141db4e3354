package category

// Category is a node in the spending-category forest. ParentID is nil
// for top-level categories; the forest is at most two levels deep.
type Category struct {
	ID       int64  `db:"id" json:"id"`
	Slug     string `db:"slug" json:"slug"`
	Name     string `db:"name" json:"name"`
	ParentID *int64 `db:"parent_id" json:"parent_id,omitempty"`
}

// IsTravelSubcategory reports whether a travel booking preference can
// apply to this category. The travel subcategories proper are flights,
// hotels and rental cars; any child category is also treated as one.
func (c Category) IsTravelSubcategory() bool {
	switch c.Slug {
	case "flights", "hotels", "rental-car":
		return true
	}
	return c.ParentID != nil
}

// Index is a lookup view over the category forest.
type Index struct {
	byID   map[int64]Category
	bySlug map[string]Category
}

// NewIndex builds lookup maps and validates the forest shape: no
// cycles, and no parent that itself has a parent.
func NewIndex(categories []Category) (*Index, error) {
	byID := make(map[int64]Category, len(categories))
	for _, c := range categories {
		byID[c.ID] = c
	}

	bySlug := make(map[string]Category, len(categories))
	for _, c := range categories {
		if c.ParentID != nil {
			parent, ok := byID[*c.ParentID]
			if !ok {
				return nil, ErrUnknownParent
			}
			if parent.ID == c.ID {
				return nil, ErrForestCycle
			}
			if parent.ParentID != nil {
				return nil, ErrForestTooDeep
			}
		}
		bySlug[c.Slug] = c
	}

	return &Index{byID: byID, bySlug: bySlug}, nil
}

// ByID returns the category with the given id.
func (i *Index) ByID(id int64) (Category, bool) {
	c, ok := i.byID[id]
	return c, ok
}

// BySlug returns the category with the given slug.
func (i *Index) BySlug(slug string) (Category, bool) {
	c, ok := i.bySlug[slug]
	return c, ok
}

// Parent returns the parent of c, if any.
func (i *Index) Parent(c Category) (Category, bool) {
	if c.ParentID == nil {
		return Category{}, false
	}
	parent, ok := i.byID[*c.ParentID]
	return parent, ok
}
