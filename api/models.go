package api

import "io"

type Book struct {
	ID              int    `json:"id"`
	Title           string `json:"title"`
	Authors         string `json:"authors"`
	Genre           string `json:"genre"`
	PublicationDate string `json:"publication_date"`
	Description     string `json:"description"`
	BookFile        string `json:"book_file"`
	CoverImage      string `json:"cover_image"`
}

// Upload is a file sent as one part of a multipart request.
type Upload struct {
	Filename string
	Content  io.Reader
}

type NewBook struct {
	Title           string
	Authors         string
	Genre           string
	PublicationDate string
	Description     string
	BookFile        *Upload
	CoverImage      *Upload
}

type ReadingList struct {
	ID    int               `json:"id"`
	Name  string            `json:"name"`
	Items []ReadingListItem `json:"items"`
}

type ReadingListItem struct {
	ID          int  `json:"id"`
	Book        int  `json:"book"`
	Order       int  `json:"order"`
	BookDetails Book `json:"book_details"`
}

// ItemOrder is one entry of the order sent when a reading list is reordered.
type ItemOrder struct {
	ID    int `json:"id"`
	Order int `json:"order"`
}

type Profile struct {
	FullName string `json:"full_name"`
	Bio      string `json:"bio"`
	Image    string `json:"image"`
}

// ProfileUpdate replaces the profile. A nil Image keeps the current picture unless ClearImage is set.
type ProfileUpdate struct {
	FullName   string
	Bio        string
	Image      *Upload
	ClearImage bool
}

type Registration struct {
	Email     string `json:"email"`
	Username  string `json:"username"`
	Password  string `json:"password"`
	Password2 string `json:"password2"`
}
