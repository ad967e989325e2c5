package handlers

import (
	"time"

	"github.com/serroba/shortlinks/internal/accounts"
	"github.com/serroba/shortlinks/internal/shortener"
)

// ShortenRequest is the request body for creating a short URL.
type ShortenRequest struct {
	Body struct {
		_                struct{} `additionalProperties:"true"`
		URL              string   `doc:"The URL to shorten"                       example:"https://example.com/very/long/path" json:"url"                          required:"false"`
		VanityString     string   `doc:"Custom short code, registered users only" example:"my-link"                           json:"vanity_string,omitempty"      required:"false"`
		ShortenURLLength int      `doc:"Length of a generated short code"         example:"6"                                 json:"shorten_url_length,omitempty" maximum:"255"   required:"false"`
	}
}

// ShortenURLRef identifies a short URL in create responses.
type ShortenURLRef struct {
	ID   int64  `doc:"Short URL id"   json:"id"`
	Name string `doc:"The short code" json:"shorten_url_name"`
}

// ShortenResponse is the response for a shorten request.
type ShortenResponse struct {
	Status   int
	Location string `header:"Location"`
	Body     struct {
		Message    string        `json:"message"`
		ShortenURL ShortenURLRef `json:"shorten_url"`
		ShortURL   string        `doc:"The full short URL" json:"short_url"`
	}
}

// LongURLView is the public shape of a long URL.
type LongURLView struct {
	ID        int64     `json:"id"`
	URLName   string    `json:"url_name"`
	DateAdded time.Time `json:"date_added"`
}

func newLongURLView(u *shortener.LongURL) LongURLView {
	return LongURLView{ID: u.ID, URLName: u.Name, DateAdded: u.CreatedAt}
}

// ShortLinkView is the public shape of a short link.
type ShortLinkView struct {
	ID             int64     `json:"id"`
	ShortenURLName string    `json:"shorten_url_name"`
	LongURLID      int64     `json:"long_url_id"`
	IsActive       bool      `json:"is_active"`
	Deleted        bool      `json:"deleted"`
	Visits         int64     `json:"visits"`
	DateAdded      time.Time `json:"date_added"`
}

func newShortLinkView(l *shortener.ShortLink) ShortLinkView {
	return ShortLinkView{
		ID:             l.ID,
		ShortenURLName: l.Code,
		LongURLID:      l.LongURLID,
		IsActive:       l.IsActive,
		Deleted:        l.Deleted,
		Visits:         l.Visits,
		DateAdded:      l.CreatedAt,
	}
}

// LinkIDRequest addresses a short link by id.
type LinkIDRequest struct {
	ID int64 `doc:"Short URL id" example:"1" path:"id"`
}

// CodeRequest addresses a short link by code.
type CodeRequest struct {
	Code string `doc:"The short code" example:"abc123" path:"code"`
}

// LongURLResponse returns a resolved target.
type LongURLResponse struct {
	Body LongURLView
}

// RedirectResponse sends the client to the resolved target.
type RedirectResponse struct {
	Status   int
	Location string `header:"Location"`
}

// UpdateTargetRequest re-points a short link.
type UpdateTargetRequest struct {
	ID   int64 `doc:"Short URL id" path:"id"`
	Body struct {
		_   struct{} `additionalProperties:"true"`
		URL string   `doc:"The new target URL" example:"https://example.com/new" json:"url" required:"false"`
	}
}

// UpdateTargetResponse is the updated link with its new target.
type UpdateTargetResponse struct {
	Body struct {
		ShortLinkView
		LongURL string `json:"long_url"`
	}
}

// MessageResponse carries a single message.
type MessageResponse struct {
	Body struct {
		Message string `json:"message"`
	}
}

func message(msg string) *MessageResponse {
	resp := &MessageResponse{}
	resp.Body.Message = msg

	return resp
}

// URLListResponse lists long URLs.
type URLListResponse struct {
	Body struct {
		URLList []LongURLView `json:"url_list"`
	}
}

// ShortLinkListResponse lists short links.
type ShortLinkListResponse struct {
	Body struct {
		ShortenURLList []ShortLinkView `json:"shorten_url_list"`
	}
}

// TotalURLsResponse counts the caller's long URLs.
type TotalURLsResponse struct {
	Body struct {
		TotalURLs int `json:"total_urls"`
	}
}

// TotalShortLinksResponse counts the caller's short links.
type TotalShortLinksResponse struct {
	Body struct {
		TotalShortenURLs int `json:"total_shorten_urls"`
	}
}

// UserView is the public shape of a user.
type UserView struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	FirstName string    `json:"firstname"`
	LastName  string    `json:"lastname"`
	Email     string    `json:"email"`
	DateAdded time.Time `json:"date_added"`
}

func newUserView(u *accounts.User) UserView {
	return UserView{
		ID:        u.ID,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		DateAdded: u.CreatedAt,
	}
}

// RegisterRequest is the request body for creating an account.
type RegisterRequest struct {
	Body struct {
		_               struct{} `additionalProperties:"true"`
		Username        string   `json:"username"         required:"false"`
		Password        string   `json:"password"         required:"false"`
		ConfirmPassword string   `json:"confirm_password" required:"false"`
		FirstName       string   `json:"firstname"        required:"false"`
		LastName        string   `json:"lastname"         required:"false"`
		Email           string   `json:"email"            required:"false"`
	}
}

// RegisterResponse is the response for a new account.
type RegisterResponse struct {
	Status int
	Body   struct {
		Message string   `json:"message"`
		User    UserView `json:"user"`
	}
}

// TokenResponse carries a freshly signed bearer token.
type TokenResponse struct {
	Body struct {
		Message string `json:"message"`
		Token   string `json:"token"`
	}
}

// TokenExpirationRequest addresses a token to check.
type TokenExpirationRequest struct {
	Token string `doc:"Bearer token" path:"token"`
}

// TokenExpirationResponse reports whether a token is still usable.
type TokenExpirationResponse struct {
	Body struct {
		IsValid bool `json:"is_valid"`
	}
}

// ProfileResponse returns the caller's profile.
type ProfileResponse struct {
	Body UserView
}
