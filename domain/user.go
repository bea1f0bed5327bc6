package domain

type User struct {
	ID        int64  `json:"id" db:"id"`
	LoginID   string `json:"loginId" db:"login_id"`
	Email     string `json:"email" db:"email"`
	Password  string `json:"password,omitempty" db:"password"`
	CreatedAt string `json:"createdAt,omitempty" db:"created_at"`
}
