package catalog

import "fmt"

type ladder struct {
	metric MetricType
	noun   string
	icon   string
	values [5]int64
	titles [5]string
}

// defaultLadders is the compiled-in progression for every metric, one entry
// per tier from bronze to diamond.
var defaultLadders = []ladder{ //nolint:gochecknoglobals // compiled-in table
	{BooksRead, "books finished", "book.closed", [5]int64{5, 25, 50, 100, 250},
		[5]string{"Bookworm", "Avid Reader", "Bibliophile", "Book Devourer", "Living Library"}},
	{PagesRead, "pages read", "doc.text", [5]int64{1000, 5000, 10000, 25000, 50000},
		[5]string{"Page Turner", "Chapter Chaser", "Page Master", "Endless Pages", "Paper Mountain"}},
	{ReadingStreak, "consecutive reading days", "flame", [5]int64{3, 7, 30, 100, 365},
		[5]string{"Warming Up", "Week Streak", "Monthly Habit", "Century Streak", "Year of Reading"}},
	{LibrarySize, "books in your library", "books.vertical", [5]int64{10, 50, 100, 250, 500},
		[5]string{"Collector", "Curator", "Archivist", "Librarian", "Grand Library"}},
	{GenresExplored, "genres explored", "globe", [5]int64{3, 5, 10, 15, 20},
		[5]string{"Explorer", "Wanderer", "Voyager", "Cartographer", "Genre Nomad"}},
	{ReviewsWritten, "reviews written", "pencil", [5]int64{1, 10, 25, 50, 100},
		[5]string{"First Words", "Critic", "Reviewer", "Columnist", "Literary Voice"}},
	{FriendsConnected, "reading friends", "person.2", [5]int64{1, 5, 10, 25, 50},
		[5]string{"Book Buddy", "Reading Circle", "Book Club", "Community Pillar", "Reading Hub"}},
	{RatingsGiven, "books rated", "star", [5]int64{5, 25, 50, 100, 250},
		[5]string{"Rater", "Judge", "Connoisseur", "Tastemaker", "Oracle"}},
	// total_pages is listed for display only; no stats snapshot counts it, so
	// these criteria are never awarded.
	{TotalPages, "pages across your library", "square.stack", [5]int64{5000, 25000, 50000, 100000, 250000},
		[5]string{"Shelf Weight", "Heavy Shelf", "Tower of Pages", "Paper Fortress", "Page Empire"}},
}

// Default returns the compiled-in catalog. Each call builds a fresh value.
func Default() *Catalog {
	criteria := make([]Criterion, 0, len(defaultLadders)*len(Tiers))
	for _, l := range defaultLadders {
		for i, tier := range Tiers {
			criteria = append(criteria, Criterion{
				Metric:        l.metric,
				Tier:          tier,
				RequiredValue: l.values[i],
				Title:         l.titles[i],
				Description:   fmt.Sprintf("Reach %d %s", l.values[i], l.noun),
				Icon:          fmt.Sprintf("%s.%s", l.icon, tier),
			})
		}
	}
	return New(criteria...)
}
