package woocommerce

// DTOs for the WooCommerce REST API (wc/v3). Remote payloads are loosely
// typed JSON; these structs pin down the fields the console consumes and
// leave the rest to the meta/attribute maps.

type Category struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Parent      int64  `json:"parent"`
	Description string `json:"description"`
	Count       int    `json:"count"`
}

type Brand struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	Count       int    `json:"count"`
}

type Product struct {
	ID               int64       `json:"id"`
	Name             string      `json:"name"`
	Slug             string      `json:"slug"`
	SKU              string      `json:"sku"`
	Description      string      `json:"description"`
	ShortDescription string      `json:"short_description"`
	Price            string      `json:"price"`
	RegularPrice     string      `json:"regular_price"`
	SalePrice        string      `json:"sale_price"`
	Status           string      `json:"status"`
	Type             string      `json:"type"`
	StockStatus      string      `json:"stock_status"`
	Weight           string      `json:"weight"`
	Dimensions       Dimensions  `json:"dimensions"`
	Categories       []TermRef   `json:"categories"`
	Brands           []TermRef   `json:"brands"`
	Images           []Image     `json:"images"`
	Attributes       []Attribute `json:"attributes"`
	MetaData         []MetaData  `json:"meta_data"`
}

type Variation struct {
	ID           int64                `json:"id"`
	SKU          string               `json:"sku"`
	Price        string               `json:"price"`
	RegularPrice string               `json:"regular_price"`
	SalePrice    string               `json:"sale_price"`
	StockStatus  string               `json:"stock_status"`
	Attributes   []VariationAttribute `json:"attributes"`
}

type TermRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type Image struct {
	ID   int64  `json:"id"`
	Src  string `json:"src"`
	Name string `json:"name"`
	Alt  string `json:"alt"`
}

type Attribute struct {
	ID      int64    `json:"id"`
	Name    string   `json:"name"`
	Options []string `json:"options"`
}

type VariationAttribute struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Option string `json:"option"`
}

type MetaData struct {
	Key   string      `json:"key"`
	Value interface{} `json:"value"`
}

type Dimensions struct {
	Length string `json:"length"`
	Width  string `json:"width"`
	Height string `json:"height"`
}
