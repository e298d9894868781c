package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/dcallahan/interaction-management/internal/domain"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// SiteBuilder creates test sites with a builder pattern
type SiteBuilder struct {
	name        string
	description string
}

func NewSiteBuilder() *SiteBuilder {
	return &SiteBuilder{
		name: fmt.Sprintf("site_%s", uuid.New().String()[:8]),
	}
}

func (b *SiteBuilder) WithName(name string) *SiteBuilder {
	b.name = name
	return b
}

func (b *SiteBuilder) WithDescription(description string) *SiteBuilder {
	b.description = description
	return b
}

func (b *SiteBuilder) Build(t *testing.T, db *gorm.DB) *domain.Site {
	t.Helper()

	site := &domain.Site{Name: b.name, Description: b.description}
	if err := db.Create(site).Error; err != nil {
		t.Fatalf("failed to create site: %v", err)
	}
	return site
}

type membershipSpec struct {
	siteID uint
	role   domain.Role
}

// UserBuilder creates test users with a builder pattern
type UserBuilder struct {
	username    string
	email       string
	password    string
	isAdmin     bool
	memberships []membershipSpec
}

// NewUserBuilder creates a new UserBuilder with default values
func NewUserBuilder() *UserBuilder {
	suffix := uuid.New().String()[:8]
	return &UserBuilder{
		username: fmt.Sprintf("testuser_%s", suffix),
		email:    fmt.Sprintf("testuser_%s@example.com", suffix),
		password: "Testpassword123",
	}
}

func (b *UserBuilder) WithUsername(username string) *UserBuilder {
	b.username = username
	return b
}

func (b *UserBuilder) WithEmail(email string) *UserBuilder {
	b.email = email
	return b
}

func (b *UserBuilder) WithPassword(password string) *UserBuilder {
	b.password = password
	return b
}

func (b *UserBuilder) AsAdmin() *UserBuilder {
	b.isAdmin = true
	return b
}

// WithMembership adds the user to a site with the given role.
func (b *UserBuilder) WithMembership(siteID uint, role domain.Role) *UserBuilder {
	b.memberships = append(b.memberships, membershipSpec{siteID: siteID, role: role})
	return b
}

// Build creates the user in the database and returns the user with the raw password
func (b *UserBuilder) Build(t *testing.T, db *gorm.DB) (*domain.User, string) {
	t.Helper()

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(b.password), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &domain.User{
		Username:     b.username,
		Email:        b.email,
		PasswordHash: string(hashedPassword),
		IsAdmin:      b.isAdmin,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	for _, m := range b.memberships {
		membership := &domain.UserSite{UserID: user.ID, SiteID: m.siteID, Role: m.role}
		if err := db.Create(membership).Error; err != nil {
			t.Fatalf("failed to create membership: %v", err)
		}
	}

	return user, b.password
}

// TokenData is the relevant slice of the login response payload.
type TokenData struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	SiteIDs      []uint `json:"site_ids"`
}

// BuildAndAuthenticate creates the user and logs in via the API,
// returning the user and an access token.
func (b *UserBuilder) BuildAndAuthenticate(t *testing.T, ts *TestServer) (*domain.User, string) {
	t.Helper()

	user, password := b.Build(t, ts.DB.DB)

	body, _ := json.Marshal(map[string]string{
		"username": b.username,
		"password": password,
	})
	resp, err := http.Post(ts.APIURL("/auth/login"), "application/json", bytes.NewBuffer(body))
	if err != nil {
		t.Fatalf("failed to log in: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		t.Fatalf("login failed with status %d: %s", resp.StatusCode, raw)
	}

	var envelope struct {
		Data TokenData `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("failed to decode login response: %v", err)
	}
	return user, envelope.Data.AccessToken
}

// InteractionBuilder creates test interactions with a builder pattern
type InteractionBuilder struct {
	siteID    uint
	title     string
	kind      domain.InteractionType
	lead      string
	start     time.Time
	end       time.Time
	timezone  string
	location  string
	createdBy uint
}

func NewInteractionBuilder(siteID uint) *InteractionBuilder {
	start := time.Now().UTC().Add(24 * time.Hour).Truncate(time.Second)
	return &InteractionBuilder{
		siteID:   siteID,
		title:    fmt.Sprintf("interaction_%s", uuid.New().String()[:8]),
		kind:     domain.InteractionMeeting,
		lead:     "Jordan Lake",
		start:    start,
		end:      start.Add(time.Hour),
		timezone: "UTC",
	}
}

func (b *InteractionBuilder) WithTitle(title string) *InteractionBuilder {
	b.title = title
	return b
}

func (b *InteractionBuilder) WithType(kind domain.InteractionType) *InteractionBuilder {
	b.kind = kind
	return b
}

func (b *InteractionBuilder) WithLead(lead string) *InteractionBuilder {
	b.lead = lead
	return b
}

func (b *InteractionBuilder) WithTimes(start, end time.Time) *InteractionBuilder {
	b.start = start
	b.end = end
	return b
}

func (b *InteractionBuilder) WithLocation(location string) *InteractionBuilder {
	b.location = location
	return b
}

func (b *InteractionBuilder) WithCreatedBy(userID uint) *InteractionBuilder {
	b.createdBy = userID
	return b
}

func (b *InteractionBuilder) Build(t *testing.T, db *gorm.DB) *domain.Interaction {
	t.Helper()

	interaction := &domain.Interaction{
		SiteID:        b.siteID,
		Title:         b.title,
		Type:          b.kind,
		Lead:          b.lead,
		StartDatetime: b.start,
		EndDatetime:   b.end,
		Timezone:      b.timezone,
		Location:      b.location,
		CreatedBy:     b.createdBy,
	}
	if err := db.Create(interaction).Error; err != nil {
		t.Fatalf("failed to create interaction: %v", err)
	}
	return interaction
}

// DoRequest performs an authenticated API request. A non-zero siteID is
// sent in the X-Site-ID header.
func (ts *TestServer) DoRequest(t *testing.T, method, path, token string, siteID uint, body any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, ts.APIURL(path), reader)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if siteID != 0 {
		req.Header.Set("X-Site-ID", fmt.Sprintf("%d", siteID))
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}
