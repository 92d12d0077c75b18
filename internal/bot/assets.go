package bot

import (
	"encoding/json"
	"math/rand"
	"os"
	"path/filepath"
)

func (b *Bot) loadTopics() ([]string, error) {
	return loadStringList(filepath.Join(b.cfg.AssetsDir, "topics.json"))
}

func (b *Bot) randomSlapGIF() string {
	gifs, err := loadStringList(filepath.Join(b.cfg.AssetsDir, "slaps.json"))
	if err != nil || len(gifs) == 0 {
		return ""
	}
	return gifs[rand.Intn(len(gifs))]
}

func loadStringList(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, err
	}
	return list, nil
}
