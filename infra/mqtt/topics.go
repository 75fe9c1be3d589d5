package mqtt

import "strings"

// topicSafe replaces the characters MQTT reserves in topic levels.
var topicSafe = strings.NewReplacer("/", "_", "+", "_", "#", "_")

// AwardTopic is the topic a company subscribes to for its awards.
func AwardTopic(prefix, auctionID, company string) string {
	return prefix + "/" + topicSafe.Replace(auctionID) + "/award/" + topicSafe.Replace(company)
}

// ReceiptFilter matches the receipts of every auction.
func ReceiptFilter(prefix string) string {
	return prefix + "/+/receipt"
}
