package apis

// File is the top-level structure of the external APIs definition file.
//
//	apis:
//	  - name: cloudFiles
//	    type: object-store
//	    templates:
//	      - id: cf-ord
//	        region: ORD
//	        version: v1
//	        url: https://storage.ord.example.com/v1
type File struct {
	APIs []APIDef `yaml:"apis"`
}

// APIDef describes one externally hosted API.
type APIDef struct {
	ID        string        `yaml:"id,omitempty"`
	Name      string        `yaml:"name"`
	Type      string        `yaml:"type,omitempty"`
	Templates []TemplateDef `yaml:"templates"`
}

// TemplateDef describes one endpoint template. Type defaults to the API's type
// and Enabled defaults to true.
type TemplateDef struct {
	ID             string `yaml:"id,omitempty"`
	Type           string `yaml:"type,omitempty"`
	Region         string `yaml:"region"`
	Version        string `yaml:"version,omitempty"`
	URL            string `yaml:"url"`
	PublicURL      string `yaml:"publicURL,omitempty"`
	InternalURL    string `yaml:"internalURL,omitempty"`
	AdminURL       string `yaml:"adminURL,omitempty"`
	VersionInfoURL string `yaml:"versionInfo,omitempty"`
	VersionListURL string `yaml:"versionList,omitempty"`
	TenantAlias    string `yaml:"tenantAlias,omitempty"`
	Enabled        *bool  `yaml:"enabled,omitempty"`
}
