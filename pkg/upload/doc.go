// Package upload turns a raw payload into a new file version.
//
// Service.Upload sniffs the content type, asks the pricing recommender for a
// storage class, writes the blob and finally records the version:
//
//	svc := upload.NewService(manager, blobs,
//		upload.WithPolicies(policies),
//		upload.WithValidation(storage.MaxSize(100<<20)),
//	)
//
//	res, err := svc.Upload(ctx, upload.Request{
//		Tenant:     tenantID,
//		FileName:   "q3.pdf",
//		FolderID:   folderID,
//		UploadedBy: userID,
//		Body:       r,
//		Size:       size,
//	})
//
// A tenant whose tier does not allow the recommended class gets STANDARD
// instead. If recording the version fails the blob is deleted again, so no
// orphaned object is left behind.
package upload
