package validator

import (
	"testing"

	"github.com/okarpachev/promopulse/internal/models"
)

func TestValidator_ValidateStruct(t *testing.T) {
	v := New()

	tests := []struct {
		name    string
		account models.TrackedAccount
		wantErr bool
	}{
		{
			name: "Valid account",
			account: models.TrackedAccount{
				Platform:    models.PlatformTikTok,
				AccountURL:  "https://www.tiktok.com/@shopbrand",
				AccountName: "shopbrand",
			},
			wantErr: false,
		},
		{
			name: "Valid account without display name",
			account: models.TrackedAccount{
				Platform:   models.PlatformYouTube,
				AccountURL: "https://www.youtube.com/@brandofficial",
			},
			wantErr: false,
		},
		{
			name: "Missing platform",
			account: models.TrackedAccount{
				AccountURL: "https://www.tiktok.com/@shopbrand",
			},
			wantErr: true,
		},
		{
			name: "Missing URL",
			account: models.TrackedAccount{
				Platform: models.PlatformInstagram,
			},
			wantErr: true,
		},
		{
			name: "Account URL is not a URL",
			account: models.TrackedAccount{
				Platform:   models.PlatformInstagram,
				AccountURL: "not-a-url",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateStruct(tt.account)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateStruct() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
