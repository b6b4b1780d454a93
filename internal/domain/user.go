package domain

type User struct {
	AzureAdID string `json:"azure_ad_id" bson:"_id"`
	Email     string `json:"email" bson:"email"`
	Name      string `json:"name" bson:"name"`
	IsAdmin   bool   `json:"is_admin" bson:"is_admin"`
	TeamID    string `json:"team_id,omitempty" bson:"team_id,omitempty"`
}

func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}

// Actor is the authenticated caller of an operation.
type Actor struct {
	UserID  string
	IsAdmin bool
}
