package songs

type ListLibraryQuery struct {
	Limit  int     `query:"limit" json:"limit,omitempty" default:"24" validate:"min=1,max=100"`
	Offset int     `query:"offset" json:"offset,omitempty" validate:"min=0"`
	Search *string `query:"search" json:"search,omitempty" mod:"trim" validate:"omitempty,max=100" tstype:"string"`
}

type LibraryEntry struct {
	Song     *SongResponse `json:"song"`
	JoinedAt string        `json:"joined_at"`
}

type SongResponse struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Composer    string  `json:"composer"`
	Subtitle    *string `json:"subtitle"`
	Fingerprint string  `json:"fingerprint"`
	IsPublic    bool    `json:"is_public"`
	CreatedAt   string  `json:"created_at"`
}
