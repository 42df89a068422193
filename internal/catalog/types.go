package catalog

// Catalog mirrors GET /{board}/catalog.json.
type Catalog []Page

type Page struct {
	Page    int      `json:"page"`
	Threads []Thread `json:"threads"`
}

// Thread is the subset of the catalog thread object pagenine reads.
// Subject is absent on threads without one and decodes to "".
type Thread struct {
	No        int64  `json:"no"`
	Sub       string `json:"sub"`
	BumpLimit int    `json:"bumplimit"`
	Replies   int    `json:"replies"`
}

func (t Thread) BumpLimitReached() bool { return t.BumpLimit != 0 }

// Threads returns the total thread count across all pages.
func (c Catalog) Threads() int {
	n := 0
	for _, p := range c {
		n += len(p.Threads)
	}
	return n
}
