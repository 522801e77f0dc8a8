package domain

const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

type User struct {
	ID        string `db:"id"`
	Email     string `db:"email"`
	Name      string `db:"name"`
	Hash      string `db:"password_hash"`
	Role      string `db:"role"`
	CreatedAt string `db:"created_at"`
	UpdatedAt string `db:"updated_at"`
}

func (u *User) IsAdmin() bool { return u != nil && u.Role == RoleAdmin }

type Address struct {
	ID        string `db:"id"`
	UserID    string `db:"user_id"`
	Name      string `db:"name"`
	Street    string `db:"street"`
	City      string `db:"city"`
	State     string `db:"state"`
	ZipCode   string `db:"zip_code"`
	Phone     string `db:"phone"`
	CreatedAt string `db:"created_at"`
}
