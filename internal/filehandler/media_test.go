package filehandler

import (
	"testing"
)

func TestIsImage(t *testing.T) {
	tests := []struct {
		ext      string
		expected bool
	}{
		{".jpg", true},
		{".JPG", true},
		{".jpeg", true},
		{".png", true},
		{".tif", true},
		{".TIFF", true},
		{".bmp", true},
		{".heic", false},
		{".mp4", false},
		{".txt", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.ext, func(t *testing.T) {
			result := IsImage(tt.ext)
			if result != tt.expected {
				t.Errorf("IsImage(%q) = %v, want %v", tt.ext, result, tt.expected)
			}
		})
	}
}

func TestIsVideo(t *testing.T) {
	tests := []struct {
		ext      string
		expected bool
	}{
		{".avi", true},
		{".AVI", true},
		{".mov", true},
		{".mp4", true},
		{".mpg", true},
		{".mpeg", true},
		{".mkv", false},
		{".jpg", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.ext, func(t *testing.T) {
			result := IsVideo(tt.ext)
			if result != tt.expected {
				t.Errorf("IsVideo(%q) = %v, want %v", tt.ext, result, tt.expected)
			}
		})
	}
}

func TestGetMIMEType(t *testing.T) {
	tests := []struct {
		ext      string
		expected string
		wantErr  bool
	}{
		{".jpg", "image/jpeg", false},
		{".TIF", "image/tiff", false},
		{".avi", "video/x-msvideo", false},
		{".mpeg", "video/mpeg", false},
		{".gif", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.ext, func(t *testing.T) {
			got, err := GetMIMEType(tt.ext)
			if (err != nil) != tt.wantErr {
				t.Fatalf("GetMIMEType(%q) error = %v, wantErr %v", tt.ext, err, tt.wantErr)
			}
			if got != tt.expected {
				t.Errorf("GetMIMEType(%q) = %q, want %q", tt.ext, got, tt.expected)
			}
		})
	}
}

func TestCreationTime(t *testing.T) {
	tests := []struct {
		name   string
		tags   map[string]string
		want   string
		wantOK bool
	}{
		{"rfc3339", map[string]string{"creation_time": "2021-07-04T18:22:01.000000Z"}, "2021-07-04 18:22:01", true},
		{"offset kept as wall clock", map[string]string{"creation_time": "2021-07-04T18:22:01+08:00"}, "2021-07-04 18:22:01", true},
		{"avi date tag", map[string]string{"DATE": "2019-03-02 05:06:07"}, "2019-03-02 05:06:07", true},
		{"creation_time preferred", map[string]string{"date": "2000-01-01 00:00:00", "creation_time": "2022-02-02T02:02:02Z"}, "2022-02-02 02:02:02", true},
		{"garbage", map[string]string{"creation_time": "yesterday"}, "", false},
		{"none", nil, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := creationTime(tt.tags)
			if ok != tt.wantOK {
				t.Fatalf("creationTime() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got.Format("2006-01-02 15:04:05") != tt.want {
				t.Errorf("creationTime() = %v, want %s", got, tt.want)
			}
		})
	}
}
