package services

import (
	"errors"

	"dblens/internal/models"
	"dblens/internal/repositories"
)

// knownSettings guards against arbitrary keys ending up in app settings.
var knownSettings = map[string]bool{
	models.SettingDefaultDBUsername: true,
	models.SettingDefaultDBPassword: true,
}

// secretSettings are returned masked.
var secretSettings = map[string]bool{
	models.SettingDefaultDBPassword: true,
}

type SettingService struct {
	settingRepo *repositories.SettingRepository
}

func NewSettingService(settingRepo *repositories.SettingRepository) *SettingService {
	return &SettingService{settingRepo: settingRepo}
}

type SettingView struct {
	Key   string `json:"key"`
	Value string `json:"value"`
	IsSet bool   `json:"is_set"`
}

func (s *SettingService) List() ([]SettingView, error) {
	out := make([]SettingView, 0, len(knownSettings))
	for key := range knownSettings {
		setting, err := s.settingRepo.Get(key)
		if err != nil {
			return nil, err
		}
		view := SettingView{Key: key}
		if setting != nil {
			view.IsSet = setting.Value != ""
			if secretSettings[key] {
				view.Value = "********"
			} else {
				view.Value = setting.Value
			}
		}
		out = append(out, view)
	}
	return out, nil
}

func (s *SettingService) Set(actor *models.User, key, value string) error {
	if !knownSettings[key] {
		return errors.New("unknown setting key")
	}
	return s.settingRepo.Set(key, value, actor.Username)
}
