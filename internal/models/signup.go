package models

// SignUpRecord is the body posted to the user-creation endpoint.
type SignUpRecord struct {
	Username   string `json:"username"`
	FullName   string `json:"fullName"`
	Password   string `json:"password"`
	Email      string `json:"email"`
	ProfileImg string `json:"profileImg"`
	CoverImg   string `json:"coverImg"`
	Bio        string `json:"bio"`
	Website    string `json:"website"`
	Location   string `json:"location"`
}
