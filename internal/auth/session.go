package auth

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
)

const (
	sessionName   = "bobbystable_session"
	sessionMaxAge = 12 * time.Hour
)

// SessionManager keeps the staff login in a signed, encrypted cookie.
type SessionManager struct{ sc *securecookie.SecureCookie }

// NewSessionManager uses random keys when none are configured, which
// logs every staff member out on restart.
func NewSessionManager(hashKey, blockKey []byte) *SessionManager {
	if len(hashKey) == 0 {
		log.Println("WARNING: COOKIE_HASH_KEY not set, using a random key")
		hashKey = securecookie.GenerateRandomKey(32)
	}
	if len(blockKey) == 0 {
		log.Println("WARNING: COOKIE_BLOCK_KEY not set, using a random key")
		blockKey = securecookie.GenerateRandomKey(32)
	}
	sc := securecookie.New(hashKey, blockKey)
	sc.MaxAge(int(sessionMaxAge.Seconds()))
	return &SessionManager{sc: sc}
}

func (s *SessionManager) SetUser(w http.ResponseWriter, r *http.Request, username string) error {
	value := map[string]string{"user": username}
	encoded, err := s.sc.Encode(sessionName, value)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionName,
		Value:    encoded,
		Path:     "/",
		MaxAge:   int(sessionMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (s *SessionManager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name: sessionName, Value: "", Path: "/", MaxAge: -1,
		HttpOnly: true, SameSite: http.SameSiteLaxMode,
	})
}

func (s *SessionManager) User(r *http.Request) (string, bool) {
	c, err := r.Cookie(sessionName)
	if err != nil {
		return "", false
	}
	value := map[string]string{}
	if err := s.sc.Decode(sessionName, c.Value, &value); err != nil {
		return "", false
	}
	user := value["user"]
	if user == "" {
		return "", false
	}
	return user, true
}
