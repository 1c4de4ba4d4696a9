package entity

type User struct {
	ID    int    `json:"id" gorm:"primaryKey;autoIncrement"`
	Name  string `json:"name" gorm:"size:255;not null"`
	Email string `json:"email" gorm:"size:255;not null"`
}

// UserInput is the body accepted by create and update. Both fields are
// always written; there is no partial update.
type UserInput struct {
	Name  string `json:"name" form:"name" validate:"min=3"`
	Email string `json:"email" form:"email" validate:"email"`
}

// DeleteResult is returned by DELETE /users/:id.
type DeleteResult struct {
	Message string `json:"message"`
	User    *User  `json:"user"`
}

// TableName pins the gorm table name.
func (User) TableName() string {
	return "users"
}

/*
Mysql Schema:
CREATE DATABASE user_management;
USE user_management;

CREATE TABLE users (
	id INT AUTO_INCREMENT PRIMARY KEY,
	name VARCHAR(255) NOT NULL,
	email VARCHAR(255) NOT NULL
);

email is intentionally not unique.
*/
