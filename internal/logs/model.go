// Package logs serves the daily ingestion transaction log: each fetched photo
// paired with the memory the pipeline generated for it.
package logs

import "encoding/json"

// Entry pairs a photo with its generated memory text.
type Entry struct {
	ImgSrc string `json:"img_src"`
	Memory string `json:"memory"`
}

// Response is the /logs body.
type Response struct {
	Logs []Entry `json:"logs"`
}

// Record is one day's transaction log: step name to step result.
type Record map[string]json.RawMessage

type imagesStep struct {
	Output []struct {
		ImgSrc string `json:"img_src"`
	} `json:"output"`
}

type memoriesStep struct {
	Output []string `json:"output"`
}
