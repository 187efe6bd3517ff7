package domain

type DeviceStatus string

const (
	DeviceStatusAvailable   DeviceStatus = "AVAILABLE"
	DeviceStatusBooked      DeviceStatus = "BOOKED"
	DeviceStatusMaintenance DeviceStatus = "MAINTENANCE"
	DeviceStatusRetired     DeviceStatus = "RETIRED"
)

type Device struct {
	ID          int32        `json:"id"`
	AssetTag    string       `json:"asset_tag"`
	Name        string       `json:"name"`
	Category    string       `json:"category"`
	Description string       `json:"description"`
	Status      DeviceStatus `json:"status"`
	CreatedOn   string       `json:"created_on"`
	RetiredOn   *string      `json:"retired_on,omitempty"`
}
