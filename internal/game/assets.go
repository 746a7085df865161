package game

import (
	"fmt"
	_ "image/png"
	"path/filepath"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"

	"pulsepath-go/internal/models"
)

// LoadImages reads <dir>/<name>.png for every stimulus image the levels use.
func LoadImages(dir string, levels *models.LevelSet) (map[string]*ebiten.Image, error) {
	images := make(map[string]*ebiten.Image)
	for _, l := range levels.Levels {
		for _, t := range l.Targets {
			if _, ok := images[t.Image]; ok {
				continue
			}
			path := filepath.Join(dir, t.Image+".png")
			img, _, err := ebitenutil.NewImageFromFile(path)
			if err != nil {
				return nil, fmt.Errorf("failed to load stimulus image %q: %w", path, err)
			}
			images[t.Image] = img
		}
	}
	return images, nil
}
