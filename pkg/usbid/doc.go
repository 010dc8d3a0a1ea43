// Package usbid looks up vendor and product names in the usb.ids database
// distributed with usbutils and hwdata.
//
//	db := usbid.New()
//	if err := db.Load(); err != nil {
//	    // no database installed; Describe still prints the ids
//	}
//	fmt.Println(db.Describe(0x1209, 0x0001))
package usbid
