package master

import "github.com/paisaid/paisaid-cms/internal/shared"

// Province is a first-level administrative area.
type Province struct {
	ID        int64      `json:"id"`
	Code      string     `json:"provinceCode"`
	Name      string     `json:"provinceName"`
	NameEng   string     `json:"nameEng"`
	Districts []District `json:"districts,omitempty"`
}

// District belongs to exactly one province.
type District struct {
	ID         int64     `json:"id"`
	Code       string    `json:"districtCode"`
	Name       string    `json:"districtName"`
	NameEng    string    `json:"nameEng"`
	ProvinceID int64     `json:"provinceId"`
	Province   *Province `json:"province,omitempty"`
}

// DistrictFilter narrows a district listing. A zero ProvinceID lists every province.
type DistrictFilter struct {
	shared.ListParams
	ProvinceID int64
}
