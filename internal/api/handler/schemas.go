package handler

import (
	"time"

	"github.com/google/uuid"

	"github.com/postboard/blog-api/internal/core/domain"
)

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Auth ---

type registerRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// loginRequest follows the OAuth2 password flow: the email travels in the
// username field and the body may be form-encoded or JSON.
type loginRequest struct {
	Username string `json:"username" form:"username" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
}

type tokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type emailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type verifyRequest struct {
	Token string `json:"token" validate:"required"`
}

type resetPasswordRequest struct {
	Token    string `json:"token"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

// --- Users ---

type accountResponse struct {
	ID          uuid.UUID  `json:"id"`
	Email       string     `json:"email"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	BirthDate   *time.Time `json:"birth_date"`
	IsActive    bool       `json:"is_active"`
	IsSuperuser bool       `json:"is_superuser"`
	IsVerified  bool       `json:"is_verified"`
	CreatedAt   time.Time  `json:"create_at"`
}

func toAccountResponse(a *domain.Account) accountResponse {
	return accountResponse{
		ID:          a.ID,
		Email:       a.Email,
		FirstName:   a.FirstName,
		LastName:    a.LastName,
		BirthDate:   a.BirthDate,
		IsActive:    a.IsActive,
		IsSuperuser: a.IsSuperuser,
		IsVerified:  a.IsVerified,
		CreatedAt:   a.CreatedAt,
	}
}

func toAccountResponses(accounts []*domain.Account) []accountResponse {
	out := make([]accountResponse, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, toAccountResponse(a))
	}
	return out
}

// updateAccountRequest is shared by PATCH /users/me and PATCH /users/:id.
// The status flags are dropped for the former.
type updateAccountRequest struct {
	Email       *string    `json:"email"        validate:"omitempty,email"`
	Password    *string    `json:"password"`
	FirstName   *string    `json:"first_name"   validate:"omitempty,max=100"`
	LastName    *string    `json:"last_name"    validate:"omitempty,max=100"`
	BirthDate   *time.Time `json:"birth_date"`
	IsActive    *bool      `json:"is_active"`
	IsSuperuser *bool      `json:"is_superuser"`
	IsVerified  *bool      `json:"is_verified"`
}

func (r updateAccountRequest) patch() domain.AccountPatch {
	return domain.AccountPatch{
		Email:       r.Email,
		Password:    r.Password,
		FirstName:   r.FirstName,
		LastName:    r.LastName,
		BirthDate:   r.BirthDate,
		IsActive:    r.IsActive,
		IsSuperuser: r.IsSuperuser,
		IsVerified:  r.IsVerified,
	}
}

type listAccountsQuery struct {
	Limit  int `query:"limit"  validate:"gte=0,lte=100"`
	Offset int `query:"offset" validate:"gte=0"`
}

// --- Posts ---

type createPostRequest struct {
	Title   string `json:"title"   validate:"required,max=255"`
	Content string `json:"content" validate:"required"`
}

type listPostsQuery struct {
	Email  string `query:"email"  validate:"omitempty,max=320"`
	Limit  int    `query:"limit"  validate:"gte=0,lte=100"`
	Offset int    `query:"offset" validate:"gte=0"`
}

type postResponse struct {
	ID       uuid.UUID `json:"id"`
	Title    string    `json:"title"`
	Content  string    `json:"content"`
	AuthorID uuid.UUID `json:"author_id"`
	PubDate  time.Time `json:"pub_date"`
}

func toPostResponse(p *domain.Post) postResponse {
	return postResponse{
		ID:       p.ID,
		Title:    p.Title,
		Content:  p.Content,
		AuthorID: p.AuthorID,
		PubDate:  p.PubDate,
	}
}
