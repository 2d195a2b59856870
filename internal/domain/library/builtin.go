package library

import (
	"time"

	"storybook/internal/domain/story"
)

// BuiltinName names the library that ships with the binary.
const BuiltinName = "Built-in Stories"

// Hackathon is the five-page story of students chasing WWDC scholarships.
func Hackathon() story.Book {
	return story.Book{
		ID:          "hackathon",
		Title:       "The Hackathon Story",
		Author:      "Konrad, Yao & Blake",
		Description: "Three students build their playgrounds and wait for the results",
		Language:    "en-US",
		Pages: []story.Page{
			{
				Title:         "Once upon a time...",
				Caption:       "Konrad, Yao and Blake",
				NarrationText: "Once upon a time there was a lot of students who were doing their best to get scholarships to Dub-Dub in San Jose",
				Visual:        "intro",
			},
			{
				Title:         "The First Day",
				Caption:       "Core values: Learn • Create • Share",
				NarrationText: "Each year, around the same period of the year, the WWDC Scholarship contest is announced. This is the time when they gather around their MacBooks, building amazing software to showcase their skill and passion to become the WWDC Scholars",
				Visual:        "venue",
			},
			{
				Title:         "Coding through day and night...",
				NarrationText: "Once they start building their software ideas, they go a long way till they create what they initially desired. In the meantime there may come bugs, necessity to learn new APIs and SDKs and so on. Truth to be told, they do not have to worry about any of those things as they belong to the iOS community",
				Visual:        "coding",
			},
			{
				Title:         "Hackathon Winners Announcement",
				Caption:       "Time Until Results",
				NarrationText: "Finally, after co-operating and helping each other for one week, they had to submit their robust playgrounds. Feeling anxious and nervous about the results, they started looking into uncertain future",
				Visual:        "countdown",
			},
			{
				Title:          "To be continued...",
				NarrationText:  "Here starts the story of great anticipation",
				NarrationDelay: 1500 * time.Millisecond,
				Visual:         "outro",
			},
		},
	}
}

// Builtin returns the library of books compiled into the binary.
func Builtin() StoryLibrary {
	return StoryLibrary{
		Name:  BuiltinName,
		URL:   "builtin://",
		Books: []story.Book{Hackathon()},
	}
}
