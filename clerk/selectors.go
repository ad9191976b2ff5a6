package clerk

// Search and listing page layout
const (
	SearchInput   = "#basicsearch"
	ResultsHolder = "#xboxholder"
	ResultsBanner = "#xboxholder b"
	ResultList    = "#CFIResultList"
	NextPageLink  = "#xboxholder a.nextpage"

	// links in an activity row that open the attachment popup
	popupLinks = `a[onclick*="window.open"], a[href*="window.open"]`

	noResultsText = "no results"
)
