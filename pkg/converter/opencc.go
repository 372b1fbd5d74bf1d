package converter

import (
	"fmt"
	"log"

	"github.com/liuzl/gocc"
)

// openCCConverter implements TextConverter on top of OpenCC.
type openCCConverter struct {
	converter *gocc.OpenCC
	logger    *log.Logger
}

// NewOpenCCConverter initializes a Traditional-to-Simplified converter.
func NewOpenCCConverter(logger *log.Logger) (TextConverter, error) {
	converter, err := gocc.New("t2s")
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenCC converter: %w", err)
	}
	logger.Println("OpenCC converter (t2s) initialized.")
	return &openCCConverter{converter: converter, logger: logger}, nil
}

// TradToSim converts Traditional Chinese text to Simplified. The original
// text is returned when conversion fails.
func (c *openCCConverter) TradToSim(text string) string {
	out, err := c.converter.Convert(text)
	if err != nil {
		c.logger.Printf("WARN: failed to convert %q to Simplified: %v", text, err)
		return text
	}
	return out
}
