package repos

import (
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	"linenloft/internal/domain"
)

type UserRepo struct{ DB *sqlx.DB }

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{DB: db} }

const userCols = `id, email, name, password_hash, role, created_at, COALESCE(updated_at,'') AS updated_at`

func (r *UserRepo) ByEmail(email string) (*domain.User, error) {
	var u domain.User
	if err := r.DB.Get(&u, `SELECT `+userCols+` FROM users WHERE LOWER(email) = LOWER(?)`, email); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) Get(id string) (*domain.User, error) {
	var u domain.User
	if err := r.DB.Get(&u, `SELECT `+userCols+` FROM users WHERE id = ?`, id); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) Insert(u domain.User) error {
	_, err := r.DB.Exec(`
	  INSERT INTO users(id, email, name, password_hash, role)
	  VALUES(?,?,?,?,?)
	`, u.ID, u.Email, u.Name, u.Hash, u.Role)
	return err
}

func (r *UserRepo) UpdatePassword(userID, hash string) error {
	_, err := r.DB.Exec(`UPDATE users SET password_hash = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		hash, userID)
	return err
}

func (r *UserRepo) ListCustomers() ([]domain.User, error) {
	var out []domain.User
	err := r.DB.Select(&out, `SELECT `+userCols+` FROM users WHERE role = 'customer' ORDER BY email`)
	return out, err
}

func (r *UserRepo) Count() (int, error) {
	var n int
	err := r.DB.Get(&n, `SELECT COUNT(*) FROM users`)
	return n, err
}

// ---------- Sessions ----------

// BindSession attaches a user to the sid cookie's row, creating it if the
// visitor never hit a page that minted one.
func (r *UserRepo) BindSession(sid, userID string, ttl time.Duration) error {
	exp := time.Now().Add(ttl).UTC().Format(time.RFC3339)
	_, err := r.DB.Exec(`
	  INSERT INTO sessions(id, user_id, expires_at, last_seen)
	  VALUES(?,?,?,CURRENT_TIMESTAMP)
	  ON CONFLICT(id) DO UPDATE SET user_id = excluded.user_id,
	    expires_at = excluded.expires_at, last_seen = CURRENT_TIMESTAMP
	`, sid, userID, exp)
	return err
}

func (r *UserRepo) UnbindSession(sid string) error {
	_, err := r.DB.Exec(`UPDATE sessions SET user_id = NULL WHERE id = ?`, sid)
	return err
}

// SessionUser resolves the sid cookie to a user, honoring expiry.
func (r *UserRepo) SessionUser(sid string) (*domain.User, error) {
	var u domain.User
	err := r.DB.Get(&u, `
	  SELECT u.id, u.email, u.name, u.password_hash, u.role, u.created_at,
	         COALESCE(u.updated_at,'') AS updated_at
	  FROM sessions s JOIN users u ON u.id = s.user_id
	  WHERE s.id = ? AND (s.expires_at IS NULL OR s.expires_at > ?)
	`, sid, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

// ---------- Addresses ----------

func (r *UserRepo) Addresses(userID string) ([]domain.Address, error) {
	var out []domain.Address
	err := r.DB.Select(&out, `
	  SELECT id, user_id, name, street, city, state, zip_code, phone, created_at
	  FROM addresses WHERE user_id = ? ORDER BY created_at
	`, userID)
	return out, err
}

// Address returns the address only when it belongs to userID.
func (r *UserRepo) Address(userID, addressID string) (domain.Address, error) {
	var a domain.Address
	err := r.DB.Get(&a, `
	  SELECT id, user_id, name, street, city, state, zip_code, phone, created_at
	  FROM addresses WHERE id = ? AND user_id = ?
	`, addressID, userID)
	return a, err
}

func (r *UserRepo) InsertAddress(a domain.Address) error {
	_, err := r.DB.Exec(`
	  INSERT INTO addresses(id, user_id, name, street, city, state, zip_code, phone)
	  VALUES(?,?,?,?,?,?,?,?)
	`, a.ID, a.UserID, a.Name, a.Street, a.City, a.State, a.ZipCode, a.Phone)
	return err
}

func (r *UserRepo) UpdateAddress(a domain.Address) error {
	_, err := r.DB.Exec(`
	  UPDATE addresses SET name=?, street=?, city=?, state=?, zip_code=?, phone=?
	  WHERE id = ? AND user_id = ?
	`, a.Name, a.Street, a.City, a.State, a.ZipCode, a.Phone, a.ID, a.UserID)
	return err
}

func (r *UserRepo) DeleteAddress(userID, addressID string) error {
	_, err := r.DB.Exec(`DELETE FROM addresses WHERE id = ? AND user_id = ?`, addressID, userID)
	return err
}
