package models

// Teacher is an observable member of staff (stored in the users table).
type Teacher struct {
	ID       int64  `db:"id" json:"id"`
	Forename string `db:"forename" json:"forename"`
	Surname  string `db:"surname" json:"surname"`
	Email    string `db:"email" json:"email"`
}

// FullName joins forename and surname, trimming whichever is missing.
func (t Teacher) FullName() string {
	switch {
	case t.Forename == "":
		return t.Surname
	case t.Surname == "":
		return t.Forename
	default:
		return t.Forename + " " + t.Surname
	}
}

// Department is a school department.
type Department struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// FocusArea is a pedagogical focus an observation concentrates on.
type FocusArea struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// FlagType classifies a Flag. Not exposed through the API yet.
type FlagType struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// Flag marks an observation for follow-up within a focus area. Not exposed
// through the API yet.
type Flag struct {
	ID            int64 `db:"id" json:"id"`
	ObservationID int64 `db:"observation_id" json:"observation_id"`
	FlagTypeID    int64 `db:"flag_type_id" json:"flag_type_id"`
	FocusAreaID   int64 `db:"focus_area_id" json:"focus_area_id"`
	IsOpen        bool  `db:"is_open" json:"is_open"`
}
