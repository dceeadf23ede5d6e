package books

import "time"

// SeedData is the catalogue every fresh store starts with.
type SeedData struct {
	Authors []Author
	Books   []Book
	Reviews []Review
}

// Seed builds the initial catalogue stamped with now.
func Seed(now time.Time) SeedData {
	author := func(id, name, bio string) Author {
		return Author{ID: id, Name: name, Biography: strPtr(bio), CreatedAt: now, UpdatedAt: now}
	}
	book := func(id, title, desc, isbn string, year int, authorID string) Book {
		return Book{
			ID: id, Title: title, Description: strPtr(desc), ISBN: strPtr(isbn),
			PublishedYear: year, Status: StatusPublished, AuthorID: authorID,
			CreatedAt: now, UpdatedAt: now,
		}
	}
	review := func(id, title, content string, rating int, reviewer, bookID string) Review {
		return Review{
			ID: id, Title: title, Content: strPtr(content), Rating: rating,
			ReviewerName: reviewer, BookID: bookID, CreatedAt: now, UpdatedAt: now,
		}
	}

	return SeedData{
		Authors: []Author{
			author("author-1", "George Orwell", "English novelist and essayist, known for his critical commentary on political systems."),
			author("author-2", "Jane Austen", "English novelist known for her romance novels set among the landed gentry."),
			author("author-3", "Isaac Asimov", "American writer and professor of biochemistry, best known for science fiction works."),
		},
		Books: []Book{
			book("book-1", "1984", "A dystopian novel set in Airstrip One, a province of the superstate Oceania.", "978-0451524935", 1949, "author-1"),
			book("book-2", "Animal Farm", "An allegorical novella reflecting events leading up to the Russian Revolution.", "978-0451526342", 1945, "author-1"),
			book("book-3", "Pride and Prejudice", "A romantic novel that charts the emotional development of protagonist Elizabeth Bennet.", "978-0141439518", 1813, "author-2"),
			book("book-4", "Foundation", "The story of a mathematician who plans to preserve knowledge during a galactic dark age.", "978-0553293357", 1951, "author-3"),
		},
		Reviews: []Review{
			review("review-1", "A masterpiece of dystopian fiction", "Orwell's vision of a totalitarian future is chillingly prescient. A must-read.", 5, "BookLover42", "book-1"),
			review("review-2", "Thought-provoking", "Makes you question the nature of truth and freedom in modern society.", 4, "CriticalReader", "book-1"),
			review("review-3", "Brilliant allegory", "Simple on the surface but deeply meaningful. The animals bring history to life.", 5, "HistoryBuff", "book-2"),
			review("review-4", "Timeless romance", "Elizabeth Bennet remains one of literature's greatest heroines.", 5, "RomanceReader", "book-3"),
			review("review-5", "Epic sci-fi", "The scope of Asimov's imagination is breathtaking. Foundation laid the groundwork for modern sci-fi.", 5, "SciFiFan", "book-4"),
		},
	}
}
