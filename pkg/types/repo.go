package types

import "time"

// Repository is an indexed starred repository. Display fields are never null:
// upstream nulls are normalized to empty strings when converting from RawRepo.
type Repository struct {
	FullName      string    `json:"full_name"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Language      string    `json:"language"`
	Stars         int       `json:"stars"`
	UpdatedAt     time.Time `json:"updated_at"`
	HTMLURL       string    `json:"html_url"`
	OwnerLogin    string    `json:"owner_login"`
	OwnerAvatar   string    `json:"owner_avatar"`
	Archived      bool      `json:"archived"`
	ReadmeContent string    `json:"readme_content"`
	Topics        []string  `json:"topics"`
	LastIndexed   time.Time `json:"last_indexed"`
	ContentHash   string    `json:"-"`
}

// RawRepo mirrors the upstream GitHub repository payload. Only the fields the
// index cares about are declared; everything else is dropped at decode time.
type RawRepo struct {
	FullName    string    `json:"full_name"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Language    string    `json:"language"`
	Stars       int       `json:"stargazers_count"`
	UpdatedAt   time.Time `json:"updated_at"`
	HTMLURL     string    `json:"html_url"`
	Archived    bool      `json:"archived"`
	Topics      []string  `json:"topics"`
	Owner       RawOwner  `json:"owner"`
}

// RawOwner is the nested owner object of a RawRepo.
type RawOwner struct {
	Login     string `json:"login"`
	AvatarURL string `json:"avatar_url"`
}

// ToRepository converts an upstream payload into an indexable record.
// ReadmeContent and LastIndexed are filled in by the indexer.
func (r RawRepo) ToRepository() Repository {
	topics := r.Topics
	if topics == nil {
		topics = []string{}
	}
	return Repository{
		FullName:    r.FullName,
		Name:        r.Name,
		Description: r.Description,
		Language:    r.Language,
		Stars:       r.Stars,
		UpdatedAt:   r.UpdatedAt,
		HTMLURL:     r.HTMLURL,
		OwnerLogin:  r.Owner.Login,
		OwnerAvatar: r.Owner.AvatarURL,
		Archived:    r.Archived,
		Topics:      topics,
	}
}
