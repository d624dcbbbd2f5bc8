package constants

type (
	CachePrefix string
	Table       string
)

const (
	CachePrefixAdminRole CachePrefix = "ADMIN_ROLE_"
	CachePrefixIdentity  CachePrefix = "IDENTITY_"
)

// Tables that emit realtime change notifications.
const (
	TablePilots       Table = "pilots"
	TableAircraft     Table = "aircraft"
	TableFlights      Table = "flights"
	TableSafetyReport Table = "safety_reports"
	TableRouteTargets Table = "route_target_times"
)

func (t Table) String() string { return string(t) }

// KnownTables lists every table clients may subscribe to.
var KnownTables = map[string]bool{
	TablePilots.String():       true,
	TableAircraft.String():     true,
	TableFlights.String():      true,
	TableSafetyReport.String(): true,
	TableRouteTargets.String(): true,
}

const (
	// ChangeChannel is the Postgres NOTIFY channel written by the row triggers.
	ChangeChannel = "row_changes"

	SafetyAlertStream = "safety:alerts"
	SafetyAlertGroup  = "safety-alert-workers"
)

// Request headers understood by the procedure endpoints.
const (
	HeaderAPIKey     = "apikey"
	HeaderClientInfo = "x-client-info"
	HeaderRequestID  = "X-Request-ID"
)
