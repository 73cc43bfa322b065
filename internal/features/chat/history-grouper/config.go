package historygrouper

import (
	"time"

	"shopping-assistant/internal/common/config"
)

type Config struct {
	// Location decides which calendar day a timestamp belongs to.
	Location *time.Location
}

func LoadConfig(chat config.ChatConfig) (*Config, error) {
	loc, err := chat.GetLocation()
	if err != nil {
		return nil, err
	}
	return &Config{Location: loc}, nil
}
