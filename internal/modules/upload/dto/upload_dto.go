package dto

type UploadImageResponse struct {
	URL      string `json:"url"`
	FileType string `json:"fileType"`
	Size     int64  `json:"size"`
}
