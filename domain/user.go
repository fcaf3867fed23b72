package domain

type User struct {
	ID        string `json:"id" db:"id"`
	Email     string `json:"email" db:"email"`
	FullName  string `json:"full_name" db:"full_name"`
	Password  string `json:"password,omitempty" db:"password"`
	Role      string `json:"role" db:"role"`
	CreatedAt string `json:"created_at,omitempty" db:"created_at"`
}

const (
	RoleAdmin   = "admin"
	RoleCashier = "cashier"
)
