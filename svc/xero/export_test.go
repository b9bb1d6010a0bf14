package xero

var SealToken = sealToken
