// Package v1 defines the wire types of the admin REST API.
package v1

import "strings"

// Role names as issued by the API's currentUser endpoint.
const (
	RoleUser  = "ROLE_USER"
	RoleAdmin = "ROLE_ADMIN"
)

// DateTimeLayout is the zone-less timestamp format used by the API.
const DateTimeLayout = "2006-01-02T15:04:05"

// -------------------------------------------------------
// Current user
// -------------------------------------------------------

// Authority is a single granted role.
type Authority struct {
	Authority string `json:"authority" yaml:"authority"`
}

// User is an account known to the API.
type User struct {
	ID         int64  `json:"id" yaml:"id"`
	Email      string `json:"email" yaml:"email"`
	GoogleSub  string `json:"googleSub,omitempty" yaml:"googleSub,omitempty"`
	PictureURL string `json:"pictureUrl,omitempty" yaml:"pictureUrl,omitempty"`
	FullName   string `json:"fullName,omitempty" yaml:"fullName,omitempty"`
	GivenName  string `json:"givenName,omitempty" yaml:"givenName,omitempty"`
	FamilyName string `json:"familyName,omitempty" yaml:"familyName,omitempty"`
	Admin      bool   `json:"admin" yaml:"admin"`
}

// CurrentUser is the payload of GET /api/currentUser.
type CurrentUser struct {
	User  User        `json:"user" yaml:"user"`
	Roles []Authority `json:"roles" yaml:"roles"`
}

// RoleNames flattens Roles into their authority strings.
func (c *CurrentUser) RoleNames() []string {
	if c == nil {
		return nil
	}
	names := make([]string, 0, len(c.Roles))
	for _, r := range c.Roles {
		if r.Authority != "" {
			names = append(names, strings.TrimSpace(r.Authority))
		}
	}
	return names
}

// Message is the generic {"message": ...} envelope returned by deletes.
type Message struct {
	Message string `json:"message" yaml:"message"`
}

// -------------------------------------------------------
// Entities
// -------------------------------------------------------

// Article is a link shared with the class.
type Article struct {
	ID          int64  `json:"id" yaml:"id"`
	Title       string `json:"title" yaml:"title" validate:"required"`
	URL         string `json:"url" yaml:"url" validate:"required,url"`
	Explanation string `json:"explanation" yaml:"explanation" validate:"required"`
	Email       string `json:"email" yaml:"email" validate:"required,email"`
	DateAdded   string `json:"dateAdded" yaml:"dateAdded" validate:"required,datetime=2006-01-02T15:04:05"`
}

// MenuItem is a dish served at a dining commons station.
type MenuItem struct {
	ID                int64  `json:"id" yaml:"id"`
	DiningCommonsCode string `json:"diningCommonsCode" yaml:"diningCommonsCode" validate:"required"`
	Name              string `json:"name" yaml:"name" validate:"required"`
	Station           string `json:"station" yaml:"station" validate:"required"`
}

// Organization is a student organization, addressed by its code.
type Organization struct {
	ID                  int64  `json:"id,omitempty" yaml:"id,omitempty"`
	OrgCode             string `json:"orgCode" yaml:"orgCode" validate:"required,max=10"`
	OrgTranslationShort string `json:"orgTranslationShort" yaml:"orgTranslationShort" validate:"required,max=30"`
	OrgTranslation      string `json:"orgTranslation" yaml:"orgTranslation" validate:"required,max=30"`
	Inactive            bool   `json:"inactive" yaml:"inactive"`
}

// HelpRequest is a request for help from a team during section.
type HelpRequest struct {
	ID                  int64  `json:"id" yaml:"id"`
	RequesterEmail      string `json:"requesterEmail" yaml:"requesterEmail" validate:"required,email"`
	TeamID              string `json:"teamId" yaml:"teamId" validate:"required"`
	TableOrBreakoutRoom string `json:"tableOrBreakoutRoom" yaml:"tableOrBreakoutRoom" validate:"required"`
	RequestTime         string `json:"requestTime" yaml:"requestTime" validate:"required,datetime=2006-01-02T15:04:05"`
	Explanation         string `json:"explanation" yaml:"explanation" validate:"required"`
	Solved              bool   `json:"solved" yaml:"solved"`
}

// MenuItemReview is a star rating of a menu item.
type MenuItemReview struct {
	ID            int64  `json:"id" yaml:"id"`
	ItemID        int64  `json:"itemId" yaml:"itemId" validate:"required,gt=0"`
	ReviewerEmail string `json:"reviewerEmail" yaml:"reviewerEmail" validate:"required,email"`
	Stars         int    `json:"stars" yaml:"stars" validate:"required,min=1,max=5"`
	DateReviewed  string `json:"dateReviewed" yaml:"dateReviewed" validate:"required,datetime=2006-01-02T15:04:05"`
	Comments      string `json:"comments" yaml:"comments"`
}

// RecommendationRequest asks a professor for a recommendation letter.
type RecommendationRequest struct {
	ID             int64  `json:"id" yaml:"id"`
	RequesterEmail string `json:"requesterEmail" yaml:"requesterEmail" validate:"required,email"`
	ProfessorEmail string `json:"professorEmail" yaml:"professorEmail" validate:"required,email"`
	Explanation    string `json:"explanation" yaml:"explanation" validate:"required"`
	DateRequested  string `json:"dateRequested" yaml:"dateRequested" validate:"required,datetime=2006-01-02T15:04:05"`
	DateNeeded     string `json:"dateNeeded" yaml:"dateNeeded" validate:"required,datetime=2006-01-02T15:04:05"`
	Done           bool   `json:"done" yaml:"done"`
}

// UCSBDate is a named date within an academic quarter.
type UCSBDate struct {
	ID            int64  `json:"id" yaml:"id"`
	QuarterYYYYQ  string `json:"quarterYYYYQ" yaml:"quarterYYYYQ" validate:"required,len=5,numeric"`
	Name          string `json:"name" yaml:"name" validate:"required"`
	LocalDateTime string `json:"localDateTime" yaml:"localDateTime" validate:"required,datetime=2006-01-02T15:04:05"`
}
