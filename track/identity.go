package track

import (
	"encoding/json"
	"fmt"
	mrand "math/rand"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Fixed storage keys. Changing either one resets every visitor's identity,
// so they stay as the campaign shipped them.
const (
	CookieName      = "cyber_uid"
	LocalStorageKey = "cyber_session_id"

	cookieMaxAge = 365 * 24 * time.Hour
)

// Store is a minimal persistent string store. Get returns "" when the key
// is absent; errors mean the store itself is unavailable.
type Store interface {
	Get(key string) (string, error)
	Set(key, value string) error
}

// Identity derives and persists the anonymous per-visitor session id.
// The cookie store wins when both stores hold a value: some browsers clear
// local storage independently, and cookie-first keeps unique-visitor
// counts honest.
type Identity struct {
	cookie Store
	local  Store

	id string // cached for the lifetime of the page
}

func NewIdentity(cookie, local Store) *Identity {
	return &Identity{
		cookie: cookie,
		local:  local,
	}
}

// SessionID returns the visitor's session id, generating and persisting a
// new one if neither store holds a value. It never fails: if both stores
// are unavailable the freshly generated id is returned unpersisted.
func (i *Identity) SessionID() string {
	if i.id != "" {
		return i.id
	}

	var sessionID string

	// 1. Cookie first
	if i.cookie != nil {
		if v, err := i.cookie.Get(CookieName); err == nil {
			sessionID = v
		}
	}

	// 2. Then local storage
	if sessionID == "" && i.local != nil {
		if v, err := i.local.Get(LocalStorageKey); err == nil {
			sessionID = v
		}
	}

	// 3. Still nothing: mint a new one
	if sessionID == "" {
		sessionID = newSessionID()
	}

	// 4. Write back to both places, tolerating either failing
	if i.cookie != nil {
		_ = i.cookie.Set(CookieName, sessionID)
	}
	if i.local != nil {
		_ = i.local.Set(LocalStorageKey, sessionID)
	}

	i.id = sessionID
	return sessionID
}

func newSessionID() string {
	if id, err := uuid.NewRandom(); err == nil {
		return id.String()
	}
	return pseudoUUID()
}

// pseudoUUID builds a v4-shaped id without the crypto source. Not
// cryptographically strong, which is acceptable: the id deduplicates
// visitors, it authenticates nothing.
func pseudoUUID() string {
	var b [16]byte
	for i := range b {
		b[i] = byte(mrand.Intn(256))
	}
	b[6] = (b[6] & 0x0f) | 0x40 // version 4
	b[8] = (b[8] & 0x3f) | 0x80 // variant 10
	return fmt.Sprintf("%x-%x-%x-%x-%x", b[0:4], b[4:6], b[6:8], b[8:10], b[10:16])
}

// CookieStore persists the identity as a durable cookie in an HTTP cookie
// jar, scoped to the campaign site.
type CookieStore struct {
	jar  http.CookieJar
	site *url.URL
}

func NewCookieStore(jar http.CookieJar, site *url.URL) *CookieStore {
	return &CookieStore{
		jar:  jar,
		site: site,
	}
}

func (s *CookieStore) Get(name string) (string, error) {
	for _, ck := range s.jar.Cookies(s.site) {
		if ck.Name == name {
			return ck.Value, nil
		}
	}
	return "", nil
}

func (s *CookieStore) Set(name, value string) error {
	s.jar.SetCookies(s.site, []*http.Cookie{{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  time.Now().Add(cookieMaxAge),
		SameSite: http.SameSiteLaxMode,
	}})
	return nil
}

// FileStore is the local persistent key-value entry, a small JSON file.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Get(key string) (string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}

	values := map[string]string{}
	if err := json.Unmarshal(data, &values); err != nil {
		return "", err
	}
	return values[key], nil
}

func (s *FileStore) Set(key, value string) error {
	values := map[string]string{}
	if data, err := os.ReadFile(s.path); err == nil {
		// A corrupt file is overwritten rather than propagated
		_ = json.Unmarshal(data, &values)
	}

	values[key] = value

	data, err := json.Marshal(values)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o600)
}
