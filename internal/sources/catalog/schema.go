package catalog

// CategoryEntry is one declared category in categories.yaml.
type CategoryEntry struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Order       int    `yaml:"order"`
	Icon        string `yaml:"icon"`
	Color       string `yaml:"color"`
}

// Config is the root structure of categories.yaml.
type Config struct {
	Categories []CategoryEntry `yaml:"categories"`
}
