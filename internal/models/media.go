package models

// VideoFile is one rendition of a stock video.
type VideoFile struct {
	ID       int    `json:"id"`
	Quality  string `json:"quality"`
	FileType string `json:"file_type"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Link     string `json:"link"`
}

// StockVideo is a video returned by the stock-media proxy.
type StockVideo struct {
	ID         int         `json:"id"`
	URL        string      `json:"url"`
	Image      string      `json:"image"`
	Duration   int         `json:"duration"`
	VideoFiles []VideoFile `json:"video_files"`
}

// BestFile picks the first "hd" rendition, else the first rendition.
func (v StockVideo) BestFile() (VideoFile, bool) {
	for _, f := range v.VideoFiles {
		if f.Quality == "hd" {
			return f, true
		}
	}
	if len(v.VideoFiles) > 0 {
		return v.VideoFiles[0], true
	}
	return VideoFile{}, false
}

// PhotoSources holds the sized variants of a stock photo.
type PhotoSources struct {
	Original  string `json:"original"`
	Large     string `json:"large"`
	Medium    string `json:"medium"`
	Small     string `json:"small"`
	Landscape string `json:"landscape"`
}

// StockPhoto is a photo returned by the stock-media proxy.
type StockPhoto struct {
	ID           int          `json:"id"`
	URL          string       `json:"url"`
	Photographer string       `json:"photographer"`
	Alt          string       `json:"alt"`
	Src          PhotoSources `json:"src"`
}

// VideoQuery describes a stock video search.
type VideoQuery struct {
	Query       string
	PerPage     int
	MinDuration int
	MaxDuration int
}

// PlaybackQuery returns the search term used to find a playable video for m:
// its title, else its genre, else "movie".
func PlaybackQuery(m *Movie) string {
	switch {
	case m == nil:
		return "movie"
	case m.Title != "":
		return m.Title
	case m.Genre != "":
		return m.Genre
	default:
		return "movie"
	}
}
