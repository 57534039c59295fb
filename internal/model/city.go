package model

// City is a reference-data entry used for shipping and routing.
type City struct {
	CityID   int    `json:"cityId" gorm:"primaryKey;autoIncrement"`
	CityName string `json:"cityName" gorm:"type:varchar(100);uniqueIndex;not null"`
}

// CityRoute is a bidirectional weighted edge between two cities.
type CityRoute struct {
	RouteID    int     `json:"routeId" gorm:"primaryKey;autoIncrement"`
	CityAID    int     `json:"cityAId" gorm:"not null;index"`
	CityBID    int     `json:"cityBId" gorm:"not null;index"`
	DistanceKm float64 `json:"distanceKm" gorm:"not null"`

	CityA *City `json:"cityA,omitempty" gorm:"foreignKey:CityAID"`
	CityB *City `json:"cityB,omitempty" gorm:"foreignKey:CityBID"`
}

// Warehouse is a fulfillment location tied to a city.
type Warehouse struct {
	WarehouseID int64  `json:"warehouseId" gorm:"primaryKey;autoIncrement"`
	Name        string `json:"name" gorm:"type:varchar(100);not null"`
	Address     string `json:"address"`
	CityID      int    `json:"cityId" gorm:"not null;index"`

	City *City `json:"city,omitempty" gorm:"foreignKey:CityID"`
}

// RouteSummary describes the shortest known route between two cities.
type RouteSummary struct {
	TotalDistanceKm float64 `json:"totalDistanceKm"`
	PathCityIDs     []int   `json:"pathCityIds"`
	PathName        string  `json:"pathName"`
	Transfers       int     `json:"transfers"`
}
