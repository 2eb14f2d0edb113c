package settings

// Key names a site-wide setting. Using typed constants keeps call sites
// greppable and catches typos at compile time.
type Key string

func (k Key) String() string { return string(k) }

const (
	KeySiteName            Key = "site_name"
	KeySiteDescription     Key = "site_description"
	KeySiteURL             Key = "site_url"
	KeyMaintenanceMode     Key = "maintenance_mode"
	KeyMaintenanceMessage  Key = "maintenance_message"
	KeyRegistrationEnabled Key = "registration_enabled"
	KeyRecordsPerPage      Key = "records_per_page"
	KeyContactEmail        Key = "contact_email"
)

// Default describes a setting's seed value and visibility.
type Default struct {
	Value    string
	Autoload bool
	Public   bool
}

// Defaults are the rows provisioned by the seeder. Autoload settings are
// loaded in one query and cached together.
var Defaults = map[Key]Default{
	KeySiteName:            {Value: "Sitekit", Autoload: true, Public: true},
	KeySiteDescription:     {Value: "A starter web application", Autoload: true, Public: true},
	KeySiteURL:             {Value: "http://localhost:8080", Autoload: true, Public: true},
	KeyMaintenanceMode:     {Value: "false", Autoload: true, Public: true},
	KeyMaintenanceMessage:  {Value: "We are down for scheduled maintenance. Please check back soon.", Autoload: true, Public: true},
	KeyRegistrationEnabled: {Value: "true", Autoload: true, Public: true},
	KeyRecordsPerPage:      {Value: "25", Autoload: true, Public: false},
	KeyContactEmail:        {Value: "", Autoload: false, Public: false},
}
